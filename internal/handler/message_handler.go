// Package handler 提供 HTTP 请求处理器
// 本文件处理消息相关的 API 请求
package handler

import (
	"strconv"

	"social_connect_server/internal/dto/request"
	"social_connect_server/internal/service"
	"social_connect_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// currentUserID 从上下文取 JWT 中间件写入的鉴权用户 ID
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}

// pathID 解析路径中的数字参数
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorx.Newf(errorx.CodeInvalidParam, "invalid %s", name)
	}
	return id, nil
}

// SendMessage 发送私聊消息
// POST /api/messages/send
// 请求体: request.SendMessageRequest
// 成功返回 201 和落库后的完整消息（附发送者资料片段）
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	message, err := h.messageService.SendMessage(currentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, message)
}

// GetConversation 获取与指定用户的会话历史
// GET /api/messages/conversation/:userId?limit=50&offset=0
// 返回时间升序的消息页，窗口内对方发来的未读消息顺手置为已读
func (h *MessageHandler) GetConversation(c *gin.Context) {
	peerID, err := pathID(c, "userId")
	if err != nil {
		HandleError(c, err)
		return
	}
	var query request.ConversationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		HandleParamError(c, err)
		return
	}
	messages, err := h.messageService.GetConversation(currentUserID(c), peerID, query)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, messages)
}

// ListConversations 获取会话列表
// GET /api/messages/conversations?limit=20&offset=0
// 每个有过消息往来的对端一条，按最新消息时间倒序，附未读计数
func (h *MessageHandler) ListConversations(c *gin.Context) {
	var query request.ConversationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		HandleParamError(c, err)
		return
	}
	conversations, err := h.messageService.ListConversations(currentUserID(c), query)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, conversations)
}

// MarkConversationRead 将指定用户发来的全部未读消息置为已读
// PUT /api/messages/mark-read/:userId
// 幂等操作，返回本次实际翻转的条数
func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	peerID, err := pathID(c, "userId")
	if err != nil {
		HandleError(c, err)
		return
	}
	result, err := h.messageService.MarkConversationRead(currentUserID(c), peerID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, result)
}

// UnreadCount 获取全局未读消息总数
// GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	result, err := h.messageService.UnreadCount(currentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, result)
}

// SearchMessages 按内容子串搜索消息
// GET /api/messages/search?q=keyword&userId=0&limit=20&offset=0
// q 至少 2 个字符；userId 非 0 时限定为与该用户的会话
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	var query request.SearchMessageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		HandleParamError(c, err)
		return
	}
	messages, err := h.messageService.SearchMessages(currentUserID(c), query)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, messages)
}

// DeleteMessage 删除消息（仅发送者本人，物理删除）
// DELETE /api/messages/:id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, err := pathID(c, "id")
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := h.messageService.DeleteMessage(currentUserID(c), messageID); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
