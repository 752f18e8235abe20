// Package plugin 提供运行通知插件
// 插件订阅运行事件总线，在运行完成/失败等节点对外发送通知
package plugin

// Plugin 通知插件接口（对外导出）
type Plugin interface {
	// Name 插件名称（对外导出）
	Name() string
	// Init 初始化插件（对外导出）
	Init(params map[string]string) error
	// Execute 执行插件逻辑（对外导出）
	Execute(data interface{}) error
}
