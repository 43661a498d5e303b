// Package user 实现用户侧的辅助业务
// 核心职责：
// 1. 用户资料片段查询（Redis 短 TTL 缓存，供消息响应附带发送者信息）
// 2. 在线状态落库：实现 chat.PresenceObserver，上下线时回写 is_online/last_seen
//    并异步维护 Redis 在线集合镜像
package user

import (
	"encoding/json"
	"strconv"
	"time"

	"social_connect_server/internal/dao/mysql/repository"
	myredis "social_connect_server/internal/dao/redis"
	"social_connect_server/internal/dto/respond"
	"social_connect_server/pkg/constants"

	"go.uber.org/zap"
)

type userService struct {
	repos *repository.Repositories
}

// NewUserService 创建用户 Service
func NewUserService(repos *repository.Repositories) *userService {
	return &userService{repos: repos}
}

// GetProfileSnippet 获取用户资料片段（id、用户名、昵称、头像）
// 先查 Redis，未命中回源数据库并异步回填，缓存 TTL 较短，容忍资料更新的延迟
func (s *userService) GetProfileSnippet(userID int64) (*respond.UserSnippet, error) {
	key := snippetCacheKey(userID)

	if cached, err := myredis.GetKey(key); err == nil && cached != "" {
		var snippet respond.UserSnippet
		if err := json.Unmarshal([]byte(cached), &snippet); err == nil {
			return &snippet, nil
		}
		// 缓存内容损坏，删掉走回源
		myredis.SubmitCacheTask(func() {
			_ = myredis.DelKeyIfExists(key)
		})
	}

	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return nil, err
	}
	snippet := &respond.UserSnippet{
		ID:             user.ID,
		Username:       user.Username,
		FullName:       user.FullName,
		ProfilePicture: user.ProfilePicture,
	}

	if data, err := json.Marshal(snippet); err == nil {
		myredis.SubmitCacheTask(func() {
			_ = myredis.SetKeyEx(key, string(data), time.Minute*constants.REDIS_TIMEOUT)
		})
	}
	return snippet, nil
}

// UserOnline 实现 chat.PresenceObserver：用户首条连接建立
// 同步回写数据库（会话列表读库里的 is_online），Redis 镜像异步维护
func (s *userService) UserOnline(userID int64) {
	if err := s.repos.User.UpdateOnlineStatus(userID, true, time.Time{}); err != nil {
		zap.L().Error("update online status failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	myredis.SubmitCacheTask(func() {
		_ = myredis.AddOnlineUser(userID)
	})
}

// UserOffline 实现 chat.PresenceObserver：用户最后一条连接断开
// 下线时间取回调时刻，作为 last_seen 对外展示
func (s *userService) UserOffline(userID int64) {
	if err := s.repos.User.UpdateOnlineStatus(userID, false, time.Now()); err != nil {
		zap.L().Error("update offline status failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	myredis.SubmitCacheTask(func() {
		_ = myredis.RemoveOnlineUser(userID)
	})
}

// snippetCacheKey 资料片段的缓存键
func snippetCacheKey(userID int64) string {
	return "user_snippet_" + strconv.FormatInt(userID, 10)
}
