package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/croningp/NanoDiscovery/pkg/api/dto"
	"github.com/croningp/NanoDiscovery/pkg/core/engine"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
)

// StatusHandler 引擎状态与排盘查询处理器
type StatusHandler struct {
	engine *engine.Engine
	sched  *wheel.Schedule
}

// NewStatusHandler 创建StatusHandler
func NewStatusHandler(eng *engine.Engine, sched *wheel.Schedule) *StatusHandler {
	return &StatusHandler{engine: eng, sched: sched}
}

// Status 返回引擎当前状态与转轮位置
// GET /api/v1/status
func (h *StatusHandler) Status(c *gin.Context) {
	tracker := h.engine.Tracker()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.EngineStatus{
		State:    h.engine.State().String(),
		RunID:    h.engine.RunID(),
		Position: tracker.Position(),
		Reversed: tracker.Reversed(),
		Turns:    tracker.Turns(),
	}))
}

// Schedule 返回完整排盘结果
// GET /api/v1/schedule
func (h *StatusHandler) Schedule(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "尚未加载转轮调度"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.sched))
}

// ScheduleSummary 返回排盘概要
// GET /api/v1/schedule/summary
func (h *StatusHandler) ScheduleSummary(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "尚未加载转轮调度"))
		return
	}
	experiments := 0
	for _, slot := range h.sched.Slots {
		if slot.Exp.Kind == wheel.ExpExperiment {
			experiments++
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ScheduleSummary{
		Title:       h.sched.Title,
		Capacity:    h.sched.Capacity,
		SlotCount:   len(h.sched.Slots),
		Experiments: experiments,
		Generations: len(h.sched.Generations()),
	}))
}
