package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// EventStreamHandler 运行事件WebSocket推送处理器
// 前端订阅后实时收到运行事件的JSON流
type EventStreamHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
}

// NewEventStreamHandler 创建EventStreamHandler
func NewEventStreamHandler(bus *events.Bus) *EventStreamHandler {
	return &EventStreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 状态页与API同机部署，不校验来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream 升级连接并持续推送运行事件
// GET /ws/events
func (h *EventStreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ [EventStream] WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ch, err := h.bus.Subscribe(ctx)
	if err != nil {
		log.Printf("❌ [EventStream] 订阅事件总线失败: %v", err)
		return
	}

	// 读循环只用于感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("🔄 [EventStream] 客户端已接入: %s", conn.RemoteAddr())
	for {
		select {
		case <-done:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("⚠️ [EventStream] 推送事件失败: %v", err)
				return
			}
		}
	}
}
