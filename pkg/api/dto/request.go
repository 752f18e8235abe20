package dto

// ListRunsRequest 运行列表查询请求
type ListRunsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetDefaultLimit 获取默认limit
func (r *ListRunsRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
