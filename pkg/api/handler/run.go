package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/croningp/NanoDiscovery/pkg/api/dto"
	"github.com/croningp/NanoDiscovery/pkg/storage"
)

// RunHandler 运行记录查询处理器
type RunHandler struct {
	repo storage.RunEventRepository
}

// NewRunHandler 创建RunHandler
func NewRunHandler(repo storage.RunEventRepository) *RunHandler {
	return &RunHandler{repo: repo}
}

// List 列出全部运行概要
// GET /api/v1/runs
func (h *RunHandler) List(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "查询参数错误: "+err.Error()))
		return
	}

	runs, err := h.repo.Runs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, "查询运行记录失败: "+err.Error()))
		return
	}

	limit := req.GetDefaultLimit()
	if len(runs) > limit {
		runs = runs[:limit]
	}

	summaries := make([]dto.RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, dto.RunSummary{
			RunID:      r.RunID,
			EventCount: r.EventCount,
			FirstTime:  r.FirstTime,
			LastTime:   r.LastTime,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(summaries))
}

// Events 返回一次运行的全部事件（按时间顺序）
// GET /api/v1/runs/:id/events
func (h *RunHandler) Events(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "运行编号不能为空"))
		return
	}

	evts, err := h.repo.ListByRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, "查询运行事件失败: "+err.Error()))
		return
	}
	if len(evts) == 0 {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "运行 "+runID+" 不存在"))
		return
	}

	views := make([]dto.RunEventView, 0, len(evts))
	for _, e := range evts {
		views = append(views, dto.RunEventView{
			ID:         e.ID,
			Type:       string(e.Type),
			Generation: e.Generation,
			Experiment: e.Experiment,
			Message:    e.Message,
			Payload:    e.Payload,
			Time:       e.Time,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(views))
}
