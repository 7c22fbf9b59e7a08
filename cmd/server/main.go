// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genai-chat-go/internal/config"
	"genai-chat-go/internal/handler"
	"genai-chat-go/internal/middleware"
	"genai-chat-go/internal/model"
	"genai-chat-go/internal/repository"
	"genai-chat-go/internal/service"
	"genai-chat-go/pkg/database"
	"genai-chat-go/pkg/events"
	"genai-chat-go/pkg/llm"
	"genai-chat-go/pkg/log"
	"genai-chat-go/pkg/storage"
	"genai-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err := database.DB.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}); err != nil {
		log.Fatal("数据库迁移失败", err)
	}

	// 4. 初始化外部依赖（可选组件缺省配置时返回 nil 并自动禁用）
	avatarStore := storage.NewAvatarStore(cfg.MinIO)
	producer := events.NewProducer(cfg.Kafka)
	defer producer.Close()
	llmClient := llm.NewClient(cfg.LLM)

	// 5. 初始化 Repository 与 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userRepository := repository.NewUserRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	userService := service.NewUserService(userRepository, jwtManager, avatarStore)
	conversationService := service.NewConversationService(conversationRepo)
	chatService := service.NewChatService(conversationRepo, llmClient, producer)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 内置聊天页面，不依赖外部模板
	r.GET("/", handler.NewHomeHandler().Home)

	// 7. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", handler.NewUserHandler(userService).Register)
			users.POST("/login", handler.NewUserHandler(userService).Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", handler.NewUserHandler(userService).GetProfile)
				authed.POST("/logout", handler.NewUserHandler(userService).Logout)
				authed.POST("/avatar", handler.NewUserHandler(userService).UploadAvatar)
			}
		}

		// Chat 路由组，需要认证
		chat := apiV1.Group("/chat")
		chat.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			chat.POST("/send", handler.NewChatHandler(chatService).SendMessage)
		}

		// Conversation 路由组，需要认证
		conversations := apiV1.Group("/conversations")
		conversations.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			conversations.GET("", handler.NewConversationHandler(conversationService).ListConversations)
			conversations.GET("/:id", handler.NewConversationHandler(conversationService).GetConversation)
			conversations.DELETE("/:id", handler.NewConversationHandler(conversationService).DeleteConversation)
		}
	}

	// 8. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已退出")
}
