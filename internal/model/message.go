// Package model 定义数据库实体模型
// 本文件定义私信消息模型
package model

import "time"

// 消息类型取值
const (
	MessageTypeText  = "text"  // 文本消息
	MessageTypeImage = "image" // 图片消息（内容为图片 URL）
	MessageTypeFile  = "file"  // 文件消息（内容为文件 URL）
)

// Message 消息模型
// 对应数据库 messages 表
// 创建后不可变，唯一的状态变更是 is_read 单向翻转为 true；
// 发送者删除是硬删除，没有 DeletedAt 墓碑字段
type Message struct {
	// ID 消息唯一标识
	// 雪花算法生成的 int64，同节点内随时间单调递增，
	// 会话内按 (created_at, id) 排序即可得到稳定的消息顺序
	ID int64 `gorm:"column:id;primaryKey;autoIncrement:false;comment:消息雪花ID"`

	// SenderID 发送者用户 ID
	SenderID int64 `gorm:"column:sender_id;index;not null;comment:发送者id"`

	// ReceiverID 接收者用户 ID
	ReceiverID int64 `gorm:"column:receiver_id;index;not null;comment:接收者id"`

	// Content 消息内容，长度上限 2000 由服务层校验
	Content string `gorm:"column:content;type:TEXT;not null;comment:消息内容"`

	// MessageType 消息类型：text / image / file
	MessageType string `gorm:"column:message_type;type:varchar(10);not null;default:text;comment:消息类型"`

	// IsRead 已读标志，批量置 true，从不回退
	IsRead bool `gorm:"column:is_read;index;not null;default:false;comment:是否已读"`

	// CreatedAt 创建时间
	CreatedAt time.Time `gorm:"column:created_at;index;comment:创建时间"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}
