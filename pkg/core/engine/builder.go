package engine

import (
	"fmt"
	"log"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/graph"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

// Compile 执行完整编译流水线（对外导出）
// 依赖图 -> 代数/需求分析 -> 实例展开 -> 取种边装配 -> 转轮调度，
// 随后生成全部实验目录并落盘调度文件
func Compile(design *config.Design, cfg *config.PlatformConfig, store *xpfolder.Store) (*wheel.Schedule, error) {
	maxFanout := design.MaxOffspring
	if maxFanout <= 0 {
		maxFanout = cfg.MaxOffspring
	}

	g, err := graph.FromDesign(design)
	if err != nil {
		return nil, fmt.Errorf("构建依赖图失败: %w", err)
	}
	graph.ComputeGenerations(g)
	graph.ComputeOffspring(g, maxFanout)

	rg, err := graph.Expand(g, maxFanout)
	if err != nil {
		return nil, err
	}
	if err := graph.AssignEdges(g, rg); err != nil {
		return nil, err
	}

	sched, err := wheel.Compile(design.Title, g, rg, cfg.Wheel.Capacity)
	if err != nil {
		return nil, err
	}

	if err := store.Materialize(sched); err != nil {
		return nil, err
	}
	if err := sched.Save(store.SchedulePath()); err != nil {
		return nil, err
	}

	log.Printf("✅ 编译完成: %d 个实验实例, %d 代, 占用 %d/%d 个槽位",
		rg.Len(), graph.MaxGeneration(g), len(sched.Slots), cfg.Wheel.Capacity)
	return sched, nil
}
