package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// EngineStatus 执行引擎当前状态
type EngineStatus struct {
	State    string `json:"state"`
	RunID    string `json:"run_id,omitempty"`
	Position int    `json:"position"`
	Reversed bool   `json:"reversed"`
	Turns    int    `json:"turns"`
}

// RunSummary 一次运行的概要信息
type RunSummary struct {
	RunID      string    `json:"run_id"`
	EventCount int       `json:"event_count"`
	FirstTime  time.Time `json:"first_time"`
	LastTime   time.Time `json:"last_time"`
}

// RunEventView 单条运行事件
type RunEventView struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Generation int                    `json:"generation"`
	Experiment int                    `json:"experiment"`
	Message    string                 `json:"message,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Time       time.Time              `json:"time"`
}

// ScheduleSummary 排盘结果概要
type ScheduleSummary struct {
	Title       string `json:"title"`
	Capacity    int    `json:"capacity"`
	SlotCount   int    `json:"slot_count"`
	Experiments int    `json:"experiments"`
	Generations int    `json:"generations"`
}
