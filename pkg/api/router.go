package api

import (
	"github.com/gin-gonic/gin"

	"github.com/croningp/NanoDiscovery/pkg/api/handler"
	"github.com/croningp/NanoDiscovery/pkg/api/middleware"
	"github.com/croningp/NanoDiscovery/pkg/core/engine"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/storage"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, sched *wheel.Schedule, repo storage.RunEventRepository, bus *events.Bus, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	statusHandler := handler.NewStatusHandler(eng, sched)
	runHandler := handler.NewRunHandler(repo)
	healthHandler := handler.NewHealthHandler(version)
	streamHandler := handler.NewEventStreamHandler(bus)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// WebSocket事件流
	router.GET("/ws/events", streamHandler.Stream)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", statusHandler.Status)
		v1.GET("/schedule", statusHandler.Schedule)
		v1.GET("/schedule/summary", statusHandler.ScheduleSummary)

		runs := v1.Group("/runs")
		{
			runs.GET("", runHandler.List)
			runs.GET("/:id/events", runHandler.Events)
		}
	}

	return router
}
