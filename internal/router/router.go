// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"social_connect_server/internal/dao/mysql/repository"
	"social_connect_server/internal/handler"
	"social_connect_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
// 持有 Handler 聚合和 JWT 中间件依赖的用户 Repository
type Router struct {
	handlers *handler.Handlers
	userRepo repository.UserRepository
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers, userRepo repository.UserRepository) *Router {
	return &Router{
		handlers: handlers,
		userRepo: userRepo,
	}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
// 所有业务路由都在 JWT 认证之后，未带有效 Token 的请求一律 401
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	auth := middleware.JWTAuth(rt.userRepo)

	api := r.Group("/api", auth)
	rt.RegisterMessageRoutes(api)

	ws := r.Group("/ws", auth)
	rt.RegisterWebSocketRoutes(ws)
}
