// Package xpfolder 管理实验数据目录
// 编译器为每个实验实例生成一个按编号命名的目录，写入配方参数；
// 执行器与外部分析进程向目录内追加仪器输出文件
package xpfolder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
)

// 目录内的固定文件名
const (
	ParamsFileName    = "params.json"
	SpectrumFileName  = "uv_spectrum.json"
	ScheduleFileName  = "schedule.json"
	ReferenceFileName = "uv_reference.json"
)

// Params 单个实验的配方参数（对外导出）
// reagents保持加液顺序
type Params struct {
	Title    string           `json:"title"`
	Exp      int              `json:"exp"`
	Step     int              `json:"step"`
	UVVis    bool             `json:"uv_vis"`
	Reagents []config.Reagent `json:"reagents"`
	TargetPH *float64         `json:"ph,omitempty"`
	SeedFrom *int             `json:"seed_from,omitempty"` // 取种来源实验编号
}

// Store 实验数据根目录（对外导出）
type Store struct {
	root string
}

// NewStore 创建实验数据目录管理器（对外导出）
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建实验数据根目录失败: %w", err)
	}
	return &Store{root: root}, nil
}

// Root 返回根目录路径（对外导出）
func (s *Store) Root() string {
	return s.root
}

// Dir 返回指定实验的目录路径，按四位零填充编号命名（对外导出）
func (s *Store) Dir(exp int) string {
	return filepath.Join(s.root, fmt.Sprintf("%04d", exp))
}

// SchedulePath 返回调度文件路径（对外导出）
func (s *Store) SchedulePath() string {
	return filepath.Join(s.root, ScheduleFileName)
}

// Materialize 为调度中的全部实验生成目录与参数文件（对外导出）
func (s *Store) Materialize(sched *wheel.Schedule) error {
	for _, slot := range sched.Slots {
		if slot.Exp.Kind != wheel.ExpExperiment {
			continue
		}
		p := Params{
			Title:    sched.Title,
			Exp:      slot.Exp.Index,
			Step:     slot.Step,
			UVVis:    slot.UVVis,
			Reagents: slot.Reagents,
			TargetPH: slot.TargetPH,
		}
		if edge, ok := sched.EdgeTo(slot.Exp.Index); ok {
			from := edge.FromExp
			p.SeedFrom = &from
		}
		if err := s.WriteParams(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteParams 写入单个实验的参数文件（对外导出）
func (s *Store) WriteParams(p Params) error {
	dir := s.Dir(p.Exp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建实验目录 %s 失败: %w", dir, err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化实验 %d 的参数失败: %w", p.Exp, err)
	}
	path := filepath.Join(dir, ParamsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入实验 %d 的参数文件失败: %w", p.Exp, err)
	}
	return nil
}

// ReadParams 读取单个实验的参数文件（对外导出）
func (s *Store) ReadParams(exp int) (*Params, error) {
	path := filepath.Join(s.Dir(exp), ParamsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取实验 %d 的参数文件失败: %w", exp, err)
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("解析实验 %d 的参数文件失败: %w", exp, err)
	}
	return &p, nil
}

// HasExperiment 检查实验目录与参数文件是否就绪（对外导出）
func (s *Store) HasExperiment(exp int) bool {
	_, err := os.Stat(filepath.Join(s.Dir(exp), ParamsFileName))
	return err == nil
}

// Experiments 列出根目录下已存在的实验编号，升序（对外导出）
func (s *Store) Experiments() ([]int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("读取实验数据根目录失败: %w", err)
	}
	var out []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// HasReference 检查参比光谱是否已采集（对外导出）
func (s *Store) HasReference() bool {
	_, err := os.Stat(filepath.Join(s.root, ReferenceFileName))
	return err == nil
}

// WriteReference 把参比光谱写入根目录，每次运行最多采集一次（对外导出）
func (s *Store) WriteReference(spectrum interface{}) error {
	data, err := json.MarshalIndent(spectrum, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化参比光谱失败: %w", err)
	}
	path := filepath.Join(s.root, ReferenceFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入参比光谱失败: %w", err)
	}
	return nil
}

// WriteSpectrum 把光谱数据写入实验目录（对外导出）
func (s *Store) WriteSpectrum(exp int, spectrum interface{}) error {
	data, err := json.MarshalIndent(spectrum, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化实验 %d 的光谱数据失败: %w", exp, err)
	}
	path := filepath.Join(s.Dir(exp), SpectrumFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入实验 %d 的光谱数据失败: %w", exp, err)
	}
	return nil
}
