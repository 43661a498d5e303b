// Package respond 定义 HTTP 接口和 WebSocket 下行事件的出参结构
package respond

// MessageRespond 单条消息的对外视图
// 附带发送者的资料片段，省去客户端二次查询
type MessageRespond struct {
	ID                   int64  `json:"id"`
	SenderID             int64  `json:"senderId"`
	ReceiverID           int64  `json:"receiverId"`
	Content              string `json:"content"`
	MessageType          string `json:"messageType"`
	IsRead               bool   `json:"isRead"`
	CreatedAt            string `json:"createdAt"`
	SenderUsername       string `json:"senderUsername,omitempty"`
	SenderFullName       string `json:"senderFullName,omitempty"`
	SenderProfilePicture string `json:"senderProfilePicture,omitempty"`
}

// LastMessageRespond 会话列表中最新一条消息的摘要
type LastMessageRespond struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	IsRead      bool   `json:"isRead"`
	SenderID    int64  `json:"senderId"`
	CreatedAt   string `json:"createdAt"`
}

// ConversationRespond 会话列表条目
// 按最新消息时间倒序，未读计数为对端发给本人的未读消息数
type ConversationRespond struct {
	UserID         int64              `json:"userId"`
	Username       string             `json:"username"`
	FullName       string             `json:"fullName"`
	ProfilePicture string             `json:"profilePicture"`
	IsOnline       bool               `json:"isOnline"`
	LastSeen       string             `json:"lastSeen,omitempty"`
	LastMessage    LastMessageRespond `json:"lastMessage"`
	UnreadCount    int64              `json:"unreadCount"`
}

// UnreadCountRespond 全局未读计数
type UnreadCountRespond struct {
	UnreadCount int64 `json:"unreadCount"`
}

// MarkReadRespond 置已读操作的影响行数
type MarkReadRespond struct {
	MarkedCount int64 `json:"markedCount"`
}

// UserSnippet 用户资料片段，用于消息附带的发送者信息
type UserSnippet struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

// WsEventRespond 下行事件信封
// Data 为任意可序列化的载荷，与上行信封共用 {event, data} 结构
type WsEventRespond struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// TypingRespond user_typing 下行事件载荷
type TypingRespond struct {
	SenderID int64 `json:"senderId"`
	IsTyping bool  `json:"isTyping"`
}

// ErrorRespond error 下行事件载荷
type ErrorRespond struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
