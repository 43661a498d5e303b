// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 相关路由（需要认证）
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	// WebSocket 连接入口
	// 浏览器端无法为 WS 握手设置 Header，Token 可走 ?token= 查询参数
	// 请求示例: ws://host:port/ws?token=xxx
	rg.GET("", rt.handlers.Ws.Connect)
}
