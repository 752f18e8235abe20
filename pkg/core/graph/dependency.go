package graph

import (
	"fmt"

	"github.com/croningp/NanoDiscovery/pkg/config"
)

// RootID 母液根节点的固定编号
const RootID = 0

// Node 合成依赖树中的一个配方节点（对外导出）
// 树形结构：除根节点外每个节点恰好有一个父节点
type Node struct {
	ID       int
	Repeat   int              // 重复实验次数
	UVVis    bool             // 是否需要UV-Vis表征
	TargetPH *float64         // 目标pH（可选）
	Reagents []config.Reagent // 配液序列（按加液顺序）

	Parent   *Node
	Children []*Node

	// 编译期计算字段
	Generation int // 拓扑代数（根为0）
	Offspring  int // 下游取种总需求
}

// DependencyGraph 合成依赖图（对外导出）
// 显式树结构：父指针 + 子节点列表，多父节点在构建时直接拒绝
type DependencyGraph struct {
	root  *Node
	nodes map[int]*Node
	order []int // 节点插入顺序，保证遍历的确定性
}

// NewDependencyGraph 创建依赖图，自动包含母液根节点（对外导出）
func NewDependencyGraph() *DependencyGraph {
	root := &Node{ID: RootID}
	return &DependencyGraph{
		root:  root,
		nodes: map[int]*Node{RootID: root},
		order: []int{RootID},
	}
}

// AddNode 添加一个配方节点，挂接到编号为parentID的父节点下（对外导出）
// 父节点必须已存在；编号重复或父节点缺失返回错误
func (g *DependencyGraph) AddNode(parentID int, n *Node) error {
	if n.ID <= RootID {
		return fmt.Errorf("非法节点编号 %d（必须>=1）", n.ID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("节点编号 %d 重复定义", n.ID)
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return fmt.Errorf("节点 %d 引用了未定义的父节点 %d", n.ID, parentID)
	}
	if n.Parent != nil {
		return fmt.Errorf("节点 %d 已经挂接到节点 %d，不允许多个父节点", n.ID, n.Parent.ID)
	}
	if n.Repeat < 1 {
		return fmt.Errorf("节点 %d 的重复次数必须>=1", n.ID)
	}

	n.Parent = parent
	parent.Children = append(parent.Children, n)
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Root 返回母液根节点（对外导出）
func (g *DependencyGraph) Root() *Node {
	return g.root
}

// Get 按编号查找节点（对外导出）
func (g *DependencyGraph) Get(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes 按插入顺序返回全部节点，包含根节点（对外导出）
func (g *DependencyGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len 返回节点总数，包含根节点（对外导出）
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// FromDesign 从实验设计构建依赖图（对外导出）
func FromDesign(d *config.Design) (*DependencyGraph, error) {
	g := NewDependencyGraph()
	for _, dn := range d.Nodes {
		n := &Node{
			ID:       dn.ID,
			Repeat:   dn.Repeat,
			UVVis:    dn.UVVis,
			TargetPH: dn.TargetPH,
			Reagents: dn.Reagents,
		}
		if err := g.AddNode(dn.Parent, n); err != nil {
			return nil, err
		}
	}
	return g, nil
}
