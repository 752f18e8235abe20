package wheel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/croningp/NanoDiscovery/pkg/config"
)

// ExpKind 槽位内容类型
type ExpKind int

const (
	ExpEmpty      ExpKind = iota // 空槽位
	ExpPreflush                  // 预冲洗同步标记
	ExpFlush                     // 冲洗同步标记
	ExpExperiment                // 实验实例
)

// ExpRef 槽位引用：实验编号或同步标记（对外导出）
// JSON形式为整数、"preflush"、"flush"或null
type ExpRef struct {
	Kind  ExpKind
	Index int // Kind为ExpExperiment时有效
}

// Experiment 构造实验引用（对外导出）
func Experiment(index int) ExpRef {
	return ExpRef{Kind: ExpExperiment, Index: index}
}

// MarshalJSON 实现json.Marshaler
func (e ExpRef) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ExpPreflush:
		return json.Marshal("preflush")
	case ExpFlush:
		return json.Marshal("flush")
	case ExpExperiment:
		return json.Marshal(e.Index)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 实现json.Unmarshaler
func (e *ExpRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.Kind = ExpEmpty
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "preflush":
			e.Kind = ExpPreflush
		case "flush":
			e.Kind = ExpFlush
		default:
			return fmt.Errorf("未知的槽位标记: %q", s)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		e.Kind = ExpExperiment
		e.Index = n
		return nil
	}
	return fmt.Errorf("非法的槽位引用: %s", string(data))
}

// Slot 转轮上的一个槽位（对外导出）
type Slot struct {
	Index    int              `json:"slot"`
	Exp      ExpRef           `json:"exp"`
	Step     int              `json:"step"` // 所属代数
	UVVis    bool             `json:"uv_vis"`
	Reagents []config.Reagent `json:"reagents,omitempty"`
	TargetPH *float64         `json:"ph,omitempty"`
}

// SlotEdge 槽位间的取种边（对外导出）
// 由实例取种边按槽位映射派生，运行期用于规划种子转移
type SlotEdge struct {
	From    int `json:"from"`     // 来源槽位
	To      int `json:"to"`       // 目的槽位
	FromExp int `json:"from_exp"` // 来源实验编号
	ToExp   int `json:"to_exp"`   // 目的实验编号
}

// Schedule 编译产物：转轮槽位调度（对外导出）
type Schedule struct {
	Title    string     `json:"title"`
	Capacity int        `json:"capacity"`
	Slots    []Slot     `json:"slots"`
	Edges    []SlotEdge `json:"edges"`
}

// Generations 按代数分组返回槽位（对外导出）
// 返回 代数 -> 槽位列表（含同步标记），代数按出现顺序递增
func (s *Schedule) Generations() [][]Slot {
	maxStep := 0
	for _, slot := range s.Slots {
		if slot.Step > maxStep {
			maxStep = slot.Step
		}
	}
	out := make([][]Slot, maxStep)
	for _, slot := range s.Slots {
		if slot.Step < 1 {
			continue
		}
		out[slot.Step-1] = append(out[slot.Step-1], slot)
	}
	return out
}

// ExperimentSlots 返回指定代数的实验槽位，不含同步标记（对外导出）
func (s *Schedule) ExperimentSlots(step int) []Slot {
	var out []Slot
	for _, slot := range s.Slots {
		if slot.Step == step && slot.Exp.Kind == ExpExperiment {
			out = append(out, slot)
		}
	}
	return out
}

// EdgeTo 查找目的实验编号对应的取种边（对外导出）
func (s *Schedule) EdgeTo(exp int) (SlotEdge, bool) {
	for _, e := range s.Edges {
		if e.ToExp == exp {
			return e, true
		}
	}
	return SlotEdge{}, false
}

// Save 把调度写入JSON文件（对外导出）
func (s *Schedule) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化转轮调度失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入转轮调度文件失败: %w", err)
	}
	return nil
}

// LoadSchedule 从JSON文件加载调度（对外导出）
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取转轮调度文件失败: %w", err)
	}
	var s Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("解析转轮调度文件失败: %w", err)
	}
	return &s, nil
}
