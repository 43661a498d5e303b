// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"social_connect_server/internal/dao/mysql/repository"
	"social_connect_server/internal/service/message"
	"social_connect_server/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	User    UserService    // 用户 Service
	Message MessageService // 消息 Service
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 接收 Repository 聚合实例
//  2. 创建 user Service，作为 message Service 的资料片段提供方
//  3. 返回 Services 聚合
//
// message Service 对 chat.Hub 的推送依赖由 main 在 Hub 建好后
// 通过 SetLivePusher 闭环
func NewServices(repos *repository.Repositories) *Services {
	userSvc := user.NewUserService(repos)
	messageSvc := message.NewMessageService(repos, userSvc)

	return &Services{
		User:    userSvc,
		Message: messageSvc,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Message.SendMessage() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository 初始化之后
func InitServices(repos *repository.Repositories) {
	Svc = NewServices(repos)
}
