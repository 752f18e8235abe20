package graph

import (
	"fmt"
	"strconv"

	"github.com/begmaroman/go-dag"
)

// Replica 一个配方节点的物理实例（对外导出）
// 每次重复、每个表征瓶、每个额外取种瓶各对应一个Replica
type Replica struct {
	Index       int   // 全局顺序编号（也是实验文件夹编号）
	Source      *Node // 所属配方节点（归属权在DependencyGraph）
	UVVis       bool  // 仅每个配方的第一个实例承载表征标记
	SeedingLoad int   // 已分配的下游取种次数，0..maxFanout
}

// ID 实现go-dag的Identifiable接口
func (r *Replica) ID() string {
	return strconv.Itoa(r.Index)
}

// Hash 实现go-dag的Hashable接口
// Source回指配方树形成环，默认的JSON哈希无法处理，按编号哈希即可
func (r *Replica) Hash() (dag.VHash, error) {
	return dag.ToHash(r.ID())
}

// ReplicaGraph 实例展开图（对外导出）
// 底层用go-dag承载实例间的取种边，保留插入顺序供调度编译使用
type ReplicaGraph struct {
	d         *dag.DAG[*Replica]
	replicas  []*Replica       // 全局顺序
	bySource  map[int][]*Replica // 配方编号 -> 该配方的实例列表（稳定顺序）
	maxFanout int
}

// Expand 把依赖图展开为实例图（对外导出）
// 每个非根节点展开 repeat + uv + ceil(offspring/maxFanout) 个实例，
// 第一个实例继承表征标记；根节点代表母液，不参与展开
func Expand(g *DependencyGraph, maxFanout int) (*ReplicaGraph, error) {
	if maxFanout < 1 {
		return nil, NewConfigurationError("单瓶最大取种次数（%d）必须>=1", maxFanout)
	}

	rg := &ReplicaGraph{
		d:         dag.NewDAG[*Replica](),
		bySource:  make(map[int][]*Replica),
		maxFanout: maxFanout,
	}

	index := 0
	for _, n := range g.Nodes() {
		if n.ID == RootID {
			continue
		}
		total := n.Repeat + boolToInt(n.UVVis) + ceilDiv(n.Offspring, maxFanout)
		for i := 0; i < total; i++ {
			r := &Replica{
				Index:  index,
				Source: n,
				UVVis:  n.UVVis && i == 0,
			}
			if _, err := rg.d.AddVertex(r); err != nil {
				return nil, fmt.Errorf("添加实例节点失败: exp=%d, Error=%w", r.Index, err)
			}
			rg.replicas = append(rg.replicas, r)
			rg.bySource[n.ID] = append(rg.bySource[n.ID], r)
			index++
		}
	}
	return rg, nil
}

// Replicas 按全局顺序返回全部实例（对外导出）
func (rg *ReplicaGraph) Replicas() []*Replica {
	return rg.replicas
}

// OfSource 返回指定配方节点的全部实例（对外导出）
func (rg *ReplicaGraph) OfSource(nodeID int) []*Replica {
	return rg.bySource[nodeID]
}

// MaxFanout 返回单瓶最大取种次数（对外导出）
func (rg *ReplicaGraph) MaxFanout() int {
	return rg.maxFanout
}

// Len 返回实例总数（对外导出）
func (rg *ReplicaGraph) Len() int {
	return len(rg.replicas)
}

// ParentOf 查找实例的取种来源实例（对外导出）
// 树形约束下每个实例至多一个来源；第一代实例取自母液，返回nil
func (rg *ReplicaGraph) ParentOf(r *Replica) (*Replica, error) {
	parents, err := rg.d.GetParents(r.ID())
	if err != nil {
		return nil, fmt.Errorf("查询实例 %d 的来源失败: %w", r.Index, err)
	}
	if len(parents) == 0 {
		return nil, nil
	}
	if len(parents) > 1 {
		return nil, NewConfigurationError("实例 %d 存在多个取种来源", r.Index)
	}
	for id := range parents {
		p, err := rg.d.GetVertex(id)
		if err != nil {
			return nil, fmt.Errorf("解析来源实例失败: id=%s, Error=%w", id, err)
		}
		return p, nil
	}
	return nil, nil
}

// addEdge 在两个实例之间记录一条取种边
func (rg *ReplicaGraph) addEdge(parent, child *Replica) error {
	if err := rg.d.AddEdge(parent.ID(), child.ID()); err != nil {
		return fmt.Errorf("添加取种边失败: %d -> %d, Error=%w", parent.Index, child.Index, err)
	}
	return nil
}
