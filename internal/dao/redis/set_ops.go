// set_ops.go
// Set（集合）类型的操作，维护在线用户集合的跨进程镜像
// 进程内的 Presence Registry 是权威，这里只做旁路镜像供运维/其他服务查询
package redis

import (
	"strconv"

	"social_connect_server/pkg/errorx"
)

// onlineUsersKey 在线用户集合的键名
const onlineUsersKey = "online_users"

// SAdd 向集合添加一个或多个成员
// 集合特性：成员唯一，重复添加不会报错但不会增加成员
func SAdd(key string, members ...interface{}) error {
	if err := redisClient.SAdd(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis sadd key %s", key)
	}
	return nil
}

// SRem 从集合移除一个或多个成员
func SRem(key string, members ...interface{}) error {
	if err := redisClient.SRem(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis srem key %s", key)
	}
	return nil
}

// AddOnlineUser 将用户加入在线集合
func AddOnlineUser(userID int64) error {
	return SAdd(onlineUsersKey, strconv.FormatInt(userID, 10))
}

// RemoveOnlineUser 将用户移出在线集合
func RemoveOnlineUser(userID int64) error {
	return SRem(onlineUsersKey, strconv.FormatInt(userID, 10))
}
