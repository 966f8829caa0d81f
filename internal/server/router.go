package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"wallet-tx/internal/handler"
	"wallet-tx/pkg/monitor"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(tx *handler.TxHandler) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	// 2. 基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 3. 交易 API
	api := r.Group("/api/v1")
	{
		txGroup := api.Group("/tx")
		txGroup.POST("/encode", tx.Encode)
		txGroup.POST("/decode", tx.Decode)
		txGroup.POST("/prepare", tx.Prepare)
		txGroup.POST("/sign", tx.Sign)
		txGroup.POST("/submit", tx.Submit)
		txGroup.GET("/:hash", tx.Get)
	}

	return r
}
