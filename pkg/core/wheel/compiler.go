package wheel

import (
	"sort"

	"github.com/croningp/NanoDiscovery/pkg/core/graph"
)

// Compile 把实例图铺到转轮槽位上（对外导出）
// 按代数升序布置：每代先放一个预冲洗标记，再按实例顺序逐槽放置，
// 最后放一个冲洗标记。布置前做硬性容量检查：全部代消耗的槽位总数
// （每代 2个标记 + 批次大小）超过转轮容量即返回ConfigurationError，
// 绝不产生静默回绕的调度
func Compile(title string, g *graph.DependencyGraph, rg *graph.ReplicaGraph, capacity int) (*Schedule, error) {
	// 按代数分组实例，保持全局顺序
	byGen := make(map[int][]*graph.Replica)
	for _, r := range rg.Replicas() {
		byGen[r.Source.Generation] = append(byGen[r.Source.Generation], r)
	}
	gens := make([]int, 0, len(byGen))
	for gen := range byGen {
		gens = append(gens, gen)
	}
	sort.Ints(gens)

	// 硬性容量检查
	total := 0
	for _, gen := range gens {
		total += 2 + len(byGen[gen])
	}
	if total > capacity {
		return nil, graph.NewConfigurationError(
			"调度需要 %d 个槽位，超过转轮容量 %d", total, capacity)
	}

	s := &Schedule{
		Title:    title,
		Capacity: capacity,
	}

	// 布置槽位并记录 实例 -> 槽位 的映射
	slotOf := make(map[int]int, rg.Len())
	index := 0
	place := func(slot Slot) {
		slot.Index = index % capacity
		s.Slots = append(s.Slots, slot)
		index++
	}
	for _, gen := range gens {
		place(Slot{Exp: ExpRef{Kind: ExpPreflush}, Step: gen})
		for _, r := range byGen[gen] {
			slotOf[r.Index] = index % capacity
			place(Slot{
				Exp:      Experiment(r.Index),
				Step:     gen,
				UVVis:    r.UVVis,
				Reagents: r.Source.Reagents,
				TargetPH: r.Source.TargetPH,
			})
		}
		place(Slot{Exp: ExpRef{Kind: ExpFlush}, Step: gen})
	}

	// 由实例取种边派生槽位边
	for _, r := range rg.Replicas() {
		parent, err := rg.ParentOf(r)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			continue // 第一代取自母液
		}
		s.Edges = append(s.Edges, SlotEdge{
			From:    slotOf[parent.Index],
			To:      slotOf[r.Index],
			FromExp: parent.Index,
			ToExp:   r.Index,
		})
	}

	return s, nil
}
