package graph

// AssignEdges 把依赖边贪心装配成实例间的取种边（对外导出）
// 对每条依赖边(parent→child)：游标从父配方的第一个可用实例开始
// （表征瓶保留给分析、已饱和的实例跳过），依次为每个子实例分配来源，
// 当前实例取种次数到达上限后游标后移。游标越界说明需求推导与装配
// 不一致，返回ConfigurationError
func AssignEdges(g *DependencyGraph, rg *ReplicaGraph) error {
	maxFanout := rg.maxFanout

	for _, parent := range g.Nodes() {
		// 根节点的子配方直接取自母液，不占用取种边
		if parent.ID == RootID {
			continue
		}
		parentReplicas := rg.OfSource(parent.ID)

		cursor := 0
		advance := func() {
			for cursor < len(parentReplicas) {
				r := parentReplicas[cursor]
				// 表征瓶保留给分析工位，不作为取种来源
				if cursor == 0 && r.UVVis {
					cursor++
					continue
				}
				if r.SeedingLoad >= maxFanout {
					cursor++
					continue
				}
				return
			}
		}

		for _, child := range parent.Children {
			for _, childReplica := range rg.OfSource(child.ID) {
				advance()
				if cursor >= len(parentReplicas) {
					return NewConfigurationError(
						"配方 %d 的实例数量不足以供给子配方 %d 的全部取种需求", parent.ID, child.ID)
				}
				src := parentReplicas[cursor]
				if err := rg.addEdge(src, childReplica); err != nil {
					return err
				}
				src.SeedingLoad++
			}
		}
	}
	return nil
}
