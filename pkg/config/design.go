package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Reagent 一次配液操作：泵名称与体积（对外导出）
// 列表顺序即加液顺序：先加的试剂决定离子强度，还原剂与种子必须靠后
type Reagent struct {
	Name   string  `yaml:"name" json:"name"`
	Volume float64 `yaml:"volume" json:"volume"`
}

// DesignNode 合成依赖图中的一个配方节点（对外导出）
type DesignNode struct {
	ID       int       `yaml:"id"`                  // 节点编号（>=1，0为母液根节点）
	Parent   int       `yaml:"parent"`              // 父节点编号（0表示直接使用母液）
	Repeat   int       `yaml:"repeat"`              // 重复实验次数
	UVVis    bool      `yaml:"uv_vis"`              // 是否需要UV-Vis表征
	TargetPH *float64  `yaml:"ph,omitempty"`        // 目标pH（可选，设置后触发闭环滴定）
	Reagents []Reagent `yaml:"reagents"`            // 配液序列（按顺序）
}

// Design 一次合成实验设计（对外导出）
// 对应一个多代合成依赖图，由编译器展开为转轮调度
type Design struct {
	Title        string       `yaml:"title"`
	Algorithm    string       `yaml:"algorithm"`     // basic / GA / bayes / custom
	MaxOffspring int          `yaml:"max_offspring"` // 为0时使用平台配置
	Nodes        []DesignNode `yaml:"nodes"`
}

// LoadDesign 加载实验设计文件（对外导出）
func LoadDesign(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取实验设计文件失败: %w", err)
	}

	var d Design
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("解析实验设计文件失败: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate 校验实验设计的结构合法性（对外导出）
// 树形约束在这里拦截：节点编号唯一、父节点必须先于子节点定义
func (d *Design) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("实验设计缺少标题")
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("实验设计不包含任何配方节点")
	}

	seen := map[int]bool{0: true} // 0为隐式母液根节点
	for _, n := range d.Nodes {
		if n.ID <= 0 {
			return fmt.Errorf("非法节点编号 %d（必须>=1）", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("节点编号 %d 重复定义", n.ID)
		}
		if !seen[n.Parent] {
			return fmt.Errorf("节点 %d 引用了未定义的父节点 %d", n.ID, n.Parent)
		}
		if n.Repeat < 1 {
			return fmt.Errorf("节点 %d 的重复次数必须>=1", n.ID)
		}
		if len(n.Reagents) == 0 {
			return fmt.Errorf("节点 %d 未定义配液序列", n.ID)
		}
		for _, r := range n.Reagents {
			if r.Name == "" {
				return fmt.Errorf("节点 %d 存在未命名试剂", n.ID)
			}
			if r.Volume <= 0 {
				return fmt.Errorf("节点 %d 试剂 %s 的体积必须>0", n.ID, r.Name)
			}
		}
		seen[n.ID] = true
	}
	return nil
}
