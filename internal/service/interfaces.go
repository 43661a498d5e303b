// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"social_connect_server/internal/dto/request"
	"social_connect_server/internal/dto/respond"
	"social_connect_server/internal/service/message"
)

// MessageService 消息业务接口
// 同时覆盖 HTTP 入口和 WebSocket 入口（DeliverMessage/RelayTyping 即 chat.Deliverer）
type MessageService interface {
	// SendMessage 发送私聊消息（HTTP 入口）
	SendMessage(senderID int64, req request.SendMessageRequest) (*respond.MessageRespond, error)
	// DeliverMessage 发送私聊消息（WebSocket 入口）
	DeliverMessage(senderID int64, payload request.WsSendMessagePayload) error
	// RelayTyping 转发输入状态
	RelayTyping(senderID int64, payload request.TypingPayload) error
	// GetConversation 获取与指定用户的会话历史（窗口内顺手置已读）
	GetConversation(userID, peerID int64, query request.ConversationQuery) ([]respond.MessageRespond, error)
	// ListConversations 获取会话列表（最新消息 + 未读计数）
	ListConversations(userID int64, query request.ConversationListQuery) ([]respond.ConversationRespond, error)
	// MarkConversationRead 将指定用户发来的全部未读消息置为已读
	MarkConversationRead(userID, peerID int64) (*respond.MarkReadRespond, error)
	// UnreadCount 获取全局未读消息总数
	UnreadCount(userID int64) (*respond.UnreadCountRespond, error)
	// SearchMessages 按内容子串搜索消息
	SearchMessages(userID int64, query request.SearchMessageQuery) ([]respond.MessageRespond, error)
	// DeleteMessage 删除消息（仅发送者本人）
	DeleteMessage(userID, messageID int64) error
	// SetLivePusher 注入下行推送实现（启动时由 main 调用）
	SetLivePusher(pusher message.LivePusher)
}

// UserService 用户业务接口
// UserOnline/UserOffline 即 chat.PresenceObserver
type UserService interface {
	// GetProfileSnippet 获取用户资料片段（带缓存）
	GetProfileSnippet(userID int64) (*respond.UserSnippet, error)
	// UserOnline 用户上线回调
	UserOnline(userID int64)
	// UserOffline 用户下线回调
	UserOffline(userID int64)
}
