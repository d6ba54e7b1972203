package main

import (
	"context"
	"log"

	"github.com/controla/internal/app"
	"github.com/controla/internal/config"
	"github.com/controla/internal/handler"
	"github.com/controla/internal/logger"
	"github.com/controla/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	// 初始化存储后端与服务
	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Logger.Fatal("failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(handler.NewAPI(application), cfg.SessionSecret)
	logger.Logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("backend", cfg.StoreBackend))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Logger.Fatal("failed to run server", zap.Error(err))
	}
}
