package engine

import "fmt"

// MissingInputError 代开始时实验目录缺失（对外导出）
// 记录日志后跳过该代，不中止整个运行
type MissingInputError struct {
	Generation int
	Exp        int
}

// Error 实现error接口
func (e *MissingInputError) Error() string {
	return fmt.Sprintf("第 %d 代的实验 %d 目录缺失", e.Generation, e.Exp)
}

// InstrumentFault 仪器层故障（对外导出）
// 致命错误：不重试，直接中止运行
type InstrumentFault struct {
	Op  string
	Err error
}

// Error 实现error接口
func (e *InstrumentFault) Error() string {
	return fmt.Sprintf("仪器故障（%s）: %v", e.Op, e.Err)
}

// Unwrap 支持errors.Is/As链
func (e *InstrumentFault) Unwrap() error {
	return e.Err
}

// fault 包装仪器层错误
func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InstrumentFault{Op: op, Err: err}
}
