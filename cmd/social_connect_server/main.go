package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"social_connect_server/internal/config"
	dao "social_connect_server/internal/dao/mysql"
	myredis "social_connect_server/internal/dao/redis"
	"social_connect_server/internal/handler"
	"social_connect_server/internal/https_server"
	"social_connect_server/internal/infrastructure/logger"
	"social_connect_server/internal/service"
	"social_connect_server/internal/service/chat"
	"social_connect_server/pkg/util/jwt"
	"social_connect_server/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	if conf.MainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("logger initialized")

	// 3. 初始化雪花 ID 节点（消息 ID 依赖，必须先于任何投递）
	snowflake.Init()

	// 4. 初始化数据库
	repos := dao.Init()
	zap.L().Info("mysql initialized")

	// 5. 初始化 Redis
	myredis.Init()
	zap.L().Info("redis initialized")

	// 6. 初始化 JWT
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)

	// 7. 初始化参数校验错误翻译器
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}

	// 8. 初始化 Service 层（依赖注入）
	service.InitServices(repos)
	zap.L().Info("services initialized")

	// 9. 组装实时通道
	// 在线登记表 -> user service 观察者（落库 + Redis 镜像）
	presence := chat.NewPresenceRegistry()
	presence.SetObserver(service.Svc.User)

	var kafkaClient *chat.KafkaClient
	if conf.KafkaConfig.MessageMode == "kafka" {
		kafkaClient = chat.NewKafkaClient()
		kafkaClient.KafkaInit()
	}
	hub := chat.NewHub(chat.HubConfig{
		Mode:        conf.KafkaConfig.MessageMode,
		Presence:    presence,
		Deliverer:   service.Svc.Message,
		KafkaClient: kafkaClient,
	})
	// message service 与 Hub 互相依赖，通过 setter 闭环
	service.Svc.Message.SetLivePusher(hub)
	zap.L().Info("realtime hub initialized", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 10. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(service.Svc, hub)
	engine := https_server.Init(handlers, repos.User)

	// 11. 启动服务
	go hub.Start()

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down server...")

	hub.Close()
	if kafkaClient != nil {
		kafkaClient.KafkaClose()
	}

	zap.L().Info("server stopped")
}
