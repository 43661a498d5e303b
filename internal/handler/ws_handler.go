// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"social_connect_server/internal/service/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	hub *chat.Hub
}

// NewWsHandler 创建 WebSocket 处理器
func NewWsHandler(hub *chat.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect WebSocket 接入（升级 HTTP 连接为 WebSocket）
// GET /ws
// 前置: JWT 中间件已完成鉴权并写入 user_id
// 功能:
//   - 将 HTTP 连接升级为 WebSocket 连接，启动读写协程
//   - 连接在客户端发出 join 事件后才登记在线状态
func (h *WsHandler) Connect(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		// 路由必须先挂 JWT 中间件
		zap.L().Error("ws connect without authenticated user")
		c.Abort()
		return
	}
	h.hub.NewClientInit(c, userID)
}
