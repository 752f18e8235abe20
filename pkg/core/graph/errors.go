package graph

import "fmt"

// ConfigurationError 编译期容量规划错误（对外导出）
// 出现即表示需求推导与实际装配不一致或超出硬件容量，编译直接中止
type ConfigurationError struct {
	Reason string
}

// Error 实现error接口
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("容量规划错误: %s", e.Reason)
}

// NewConfigurationError 创建编译期配置错误（对外导出）
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
