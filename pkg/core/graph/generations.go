package graph

import "sort"

// ComputeGenerations 计算每个节点的拓扑代数（对外导出）
// 沿父指针回溯到根统计跳数：根为第0代，其直接子节点为第1代，依此类推
func ComputeGenerations(g *DependencyGraph) map[int]int {
	result := make(map[int]int, g.Len())
	for _, n := range g.Nodes() {
		gen := 0
		for cur := n; cur.Parent != nil; cur = cur.Parent {
			gen++
		}
		n.Generation = gen
		result[n.ID] = gen
	}
	return result
}

// MaxGeneration 返回图中最大的代数（对外导出）
func MaxGeneration(g *DependencyGraph) int {
	max := 0
	for _, n := range g.Nodes() {
		if n.Generation > max {
			max = n.Generation
		}
	}
	return max
}

// ComputeOffspring 自底向上传播下游取种需求（对外导出）
// 按代数降序处理（叶子先于根），保证子节点需求在折入父节点前已经定值：
//
//	demand[parent] += uv(n) + repeat(n) + ceil(demand(n) / maxFanout)
//
// ceil除法把"需要供给K个下游"换算成"需要K/maxFanout个额外取种瓶"
func ComputeOffspring(g *DependencyGraph, maxFanout int) map[int]int {
	nodes := g.Nodes()
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Generation > nodes[j].Generation
	})

	for _, n := range nodes {
		if n.Parent == nil {
			continue
		}
		n.Parent.Offspring += boolToInt(n.UVVis) + n.Repeat + ceilDiv(n.Offspring, maxFanout)
	}

	result := make(map[int]int, g.Len())
	for _, n := range nodes {
		result[n.ID] = n.Offspring
	}
	return result
}

// ceilDiv 向上取整除法
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
