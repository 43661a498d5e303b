package constants

import "time"

const (
	CHANNEL_SIZE       = 100                    // 通道大小（连接发送缓冲 / 消息转发通道）
	SEND_TIMEOUT       = 100 * time.Millisecond // 实时推送入队超时，超时即丢弃（落库才是交付保证）
	REDIS_TIMEOUT      = 1                      // redis 缓存过期时间（分钟）
	MAX_CONTENT_LENGTH = 2000                   // 消息内容最大长度

	DEFAULT_MESSAGE_LIMIT      = 50 // 单会话消息默认分页大小
	DEFAULT_CONVERSATION_LIMIT = 20 // 会话列表默认分页大小
	DEFAULT_SEARCH_LIMIT       = 20 // 搜索默认分页大小
	MIN_SEARCH_QUERY_LENGTH    = 2  // 搜索关键字最小长度
)
