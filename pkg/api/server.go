// Package api 提供运行状态查询HTTP服务
// 夜间无人值守运行时可远程查看引擎状态、排盘结果与历史运行记录
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/croningp/NanoDiscovery/pkg/core/engine"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/storage"
)

// ServerConfig API服务器配置
type ServerConfig struct {
	Host         string        // 监听地址
	Port         int           // 监听端口
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:        "0.0.0.0",
		Port:        8080,
		ReadTimeout: 30 * time.Second,
		// WebSocket事件流是长连接，写超时由连接级deadline控制
		WriteTimeout: 0,
	}
}

// APIServer HTTP API服务器
type APIServer struct {
	engine     *engine.Engine
	sched      *wheel.Schedule
	repo       storage.RunEventRepository
	bus        *events.Bus
	httpServer *http.Server
	config     ServerConfig
	version    string
}

// NewAPIServer 创建API服务器
func NewAPIServer(eng *engine.Engine, sched *wheel.Schedule, repo storage.RunEventRepository, bus *events.Bus, config ServerConfig, version string) *APIServer {
	return &APIServer{
		engine:  eng,
		sched:   sched,
		repo:    repo,
		bus:     bus,
		config:  config,
		version: version,
	}
}

// Start 启动服务器
func (s *APIServer) Start() error {
	router := SetupRouter(s.engine, s.sched, s.repo, s.bus, s.version)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Printf("🚀 [API] 状态查询服务启动: %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API服务监听失败: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("API服务关闭失败: %w", err)
	}
	log.Println("✅ [API] 状态查询服务已停止")
	return nil
}

// Addr 获取服务器地址
func (s *APIServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
