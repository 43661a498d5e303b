// Package request 定义 HTTP 接口的入参结构
// binding 标签由 gin 的 validator 引擎执行校验
package request

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	ReceiverID  int64  `json:"receiverId" binding:"required,min=1"`                   // 接收者用户 ID
	Content     string `json:"content" binding:"required,min=1,max=2000"`             // 消息内容，1-2000 字符
	MessageType string `json:"messageType" binding:"omitempty,oneof=text image file"` // 消息类型，默认 text
}

// ConversationQuery 会话历史分页查询
type ConversationQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"` // 每页条数，默认 50
	Offset int `form:"offset" binding:"omitempty,min=0"`        // 跳过条数（从最新一条起算）
}

// ConversationListQuery 会话列表分页查询
type ConversationListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"` // 每页条数，默认 20
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// SearchMessageQuery 消息搜索查询
type SearchMessageQuery struct {
	Keyword string `form:"q" binding:"required"`                    // 搜索关键字，长度下限由服务层统一校验
	PeerID  int64  `form:"userId" binding:"omitempty,min=1"`        // 限定对端用户，0 表示搜索全部会话
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"` // 每页条数，默认 20
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}
