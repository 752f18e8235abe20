package ph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TraceFileName 滴定轨迹文件名
const TraceFileName = "pH_operation.json"

// Direction 加液方向
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionAcid Direction = "acidic"
	DirectionBase Direction = "basic"
)

// Step 一次加液操作的记录（对外导出）
type Step struct {
	Direction     Direction `json:"direction"`
	VolumeML      float64   `json:"volume"`
	SettleSeconds float64   `json:"settle"`
}

// Trace 一次滴定的完整轨迹（对外导出）
// 成功的轨迹可在后续运行中开环重放，跳过传感直接复现加液序列
type Trace struct {
	Target   float64 `json:"target"`
	Steps    []Step  `json:"steps"`
	FinalPH  float64 `json:"final_ph"`
	VolumeML float64 `json:"volume_total"`
	Success  bool    `json:"success"`
}

// Save 把轨迹写入实验文件夹（对外导出）
func (tr *Trace) Save(dir string) error {
	data, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化滴定轨迹失败: %w", err)
	}
	path := filepath.Join(dir, TraceFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入滴定轨迹失败: %w", err)
	}
	return nil
}

// LoadTrace 从实验文件夹读取滴定轨迹（对外导出）
// 文件不存在时返回(nil, nil)，调用方据此退回闭环模式
func LoadTrace(dir string) (*Trace, error) {
	path := filepath.Join(dir, TraceFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取滴定轨迹失败: %w", err)
	}
	var tr Trace
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("解析滴定轨迹失败: %w", err)
	}
	return &tr, nil
}
