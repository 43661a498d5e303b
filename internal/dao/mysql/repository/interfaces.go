// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"database/sql"
	"errors"
	"time"

	"social_connect_server/internal/model"
	"social_connect_server/pkg/errorx"

	"gorm.io/gorm"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
// 用户的注册/编辑归外部账号服务，消息核心只读取展示字段并回写在线状态
type UserRepository interface {
	// FindByID 根据 ID 查找用户
	FindByID(id int64) (*model.User, error)
	// Exists 判断用户是否存在
	Exists(id int64) (bool, error)
	// UpdateOnlineStatus 更新在线标志和最近离线时间
	UpdateOnlineStatus(id int64, online bool, lastSeen time.Time) error
	// Create 创建用户（仅集成测试使用）
	Create(user *model.User) error
}

// ConversationRow 会话列表聚合查询的结果行
// 每行对应一个有过消息往来的对端用户及其最新一条消息和未读计数
type ConversationRow struct {
	UserID              int64        `gorm:"column:user_id"`
	Username            string       `gorm:"column:username"`
	FullName            string       `gorm:"column:full_name"`
	ProfilePicture      string       `gorm:"column:profile_picture"`
	IsOnline            bool         `gorm:"column:is_online"`
	LastSeen            sql.NullTime `gorm:"column:last_seen"`
	LastMessageID       int64        `gorm:"column:last_message_id"`
	LastMessage         string       `gorm:"column:last_message"`
	LastMessageTime     time.Time    `gorm:"column:last_message_time"`
	LastMessageType     string       `gorm:"column:last_message_type"`
	LastMessageRead     bool         `gorm:"column:last_message_read"`
	LastMessageSenderID int64        `gorm:"column:last_message_sender_id"`
	UnreadCount         int64        `gorm:"column:unread_count"`
}

// MessageRepository 消息数据访问接口
// 消息存储是交付与已读状态的唯一权威，未读数不做二级缓存
type MessageRepository interface {
	// Create 创建消息
	Create(message *model.Message) error
	// FindByID 根据 ID 查找消息
	FindByID(id int64) (*model.Message, error)
	// FindConversation 查找两个用户之间的消息，按时间倒序分页（最新页优先）
	FindConversation(userID, peerID int64, limit, offset int) ([]model.Message, error)
	// MarkReadByIDs 将指定消息集合中 peer->user 方向的未读消息置为已读，返回影响行数
	MarkReadByIDs(ids []int64, senderID, receiverID int64) (int64, error)
	// MarkConversationRead 将 sender->receiver 的全部未读消息置为已读，返回影响行数
	MarkConversationRead(senderID, receiverID int64) (int64, error)
	// CountUnread 统计发给 receiver 的全部未读消息数
	CountUnread(receiverID int64) (int64, error)
	// ListConversations 聚合会话列表：每个对端的最新消息和未读计数，按最新消息时间倒序
	ListConversations(userID int64, limit, offset int) ([]ConversationRow, error)
	// Search 按内容子串搜索消息，peerID 为 0 时搜索该用户的全部消息
	Search(userID, peerID int64, keyword string, limit, offset int) ([]model.Message, error)
	// DeleteByIDAndSender 硬删除消息，仅发送者本人可删，返回影响行数
	DeleteByIDAndSender(id, senderID int64) (int64, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	User    UserRepository    // 用户 Repository
	Message MessageRepository // 消息 Repository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Message: NewMessageRepository(db),
	}
}
