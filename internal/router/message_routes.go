// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
// 覆盖消息发送、会话历史、会话列表、已读、未读计数、搜索和删除
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/messages")
	{
		messageGroup.POST("/send", rt.handlers.Message.SendMessage)                      // 发送私聊消息
		messageGroup.GET("/conversation/:userId", rt.handlers.Message.GetConversation)   // 获取会话历史（分页）
		messageGroup.GET("/conversations", rt.handlers.Message.ListConversations)        // 获取会话列表
		messageGroup.PUT("/mark-read/:userId", rt.handlers.Message.MarkConversationRead) // 会话整体置已读
		messageGroup.GET("/unread-count", rt.handlers.Message.UnreadCount)               // 全局未读计数
		messageGroup.GET("/search", rt.handlers.Message.SearchMessages)                  // 消息内容搜索
		messageGroup.DELETE("/:id", rt.handlers.Message.DeleteMessage)                   // 删除消息（仅发送者）
	}
}
