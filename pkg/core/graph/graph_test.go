package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/config"
)

// buildChain 构建 root(0) -> A(1) -> B(2) 的链式依赖图
func buildChain(t *testing.T, repeatA, repeatB int, uvA, uvB bool) *DependencyGraph {
	t.Helper()
	g := NewDependencyGraph()
	require.NoError(t, g.AddNode(0, &Node{
		ID: 1, Repeat: repeatA, UVVis: uvA,
		Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}},
	}))
	require.NoError(t, g.AddNode(1, &Node{
		ID: 2, Repeat: repeatB, UVVis: uvB,
		Reagents: []config.Reagent{{Name: "silver", Volume: 0.5}},
	}))
	return g
}

func TestComputeGenerations(t *testing.T) {
	g := buildChain(t, 1, 1, false, false)
	gens := ComputeGenerations(g)

	assert.Equal(t, 0, gens[0], "根节点应为第0代")
	assert.Equal(t, 1, gens[1], "根的直接子节点应为第1代")
	assert.Equal(t, 2, gens[2], "孙节点应为第2代")
	assert.Equal(t, 2, MaxGeneration(g), "最大代数应为2")
}

func TestComputeOffspring(t *testing.T) {
	// A重复3次且需要表征，B重复2次无表征
	g := buildChain(t, 3, 2, true, false)
	ComputeGenerations(g)
	demand := ComputeOffspring(g, 5)

	// B: uv(0) + repeat(2) + ceil(0/5) = 2 折入A
	assert.Equal(t, 2, demand[1], "A的下游需求应为2")
	// A: uv(1) + repeat(3) + ceil(2/5)=1 折入根
	assert.Equal(t, 5, demand[0], "根的下游需求应为5")
	assert.Equal(t, 0, demand[2], "叶子节点无下游需求")
}

func TestExpandReplicaCount(t *testing.T) {
	// repeat=3, uv=true, demand=0 时实例数 = 3 + 1 + ceil(0/5) = 4
	g := NewDependencyGraph()
	require.NoError(t, g.AddNode(0, &Node{
		ID: 1, Repeat: 3, UVVis: true,
		Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}},
	}))
	ComputeGenerations(g)
	ComputeOffspring(g, 5)

	rg, err := Expand(g, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, rg.Len(), "实例总数应为4")

	replicas := rg.OfSource(1)
	require.Len(t, replicas, 4)
	assert.True(t, replicas[0].UVVis, "第一个实例应继承表征标记")
	for _, r := range replicas[1:] {
		assert.False(t, r.UVVis, "后续实例不应承载表征标记")
	}
}

func TestAssignEdgesRespectsFanout(t *testing.T) {
	// A重复1次、表征，供给B的7个实例；maxFanout=5
	g := buildChain(t, 1, 7, true, false)
	ComputeGenerations(g)
	ComputeOffspring(g, 5)

	rg, err := Expand(g, 5)
	require.NoError(t, err)
	require.NoError(t, AssignEdges(g, rg))

	for _, r := range rg.Replicas() {
		assert.LessOrEqual(t, r.SeedingLoad, 5,
			"实例 %d 的取种次数超过上限", r.Index)
		if r.UVVis {
			assert.Equal(t, 0, r.SeedingLoad, "表征瓶不应作为取种来源")
		}
	}

	// B的每个实例恰好有一个来源
	for _, r := range rg.OfSource(2) {
		parent, err := rg.ParentOf(r)
		require.NoError(t, err)
		require.NotNil(t, parent, "B的实例 %d 缺少取种来源", r.Index)
		assert.Equal(t, 1, parent.Source.ID)
	}
}

func TestExpandHandlesCyclicNodeTree(t *testing.T) {
	// Node的Parent/Children互相引用，展开时不得走JSON哈希路径
	g := buildChain(t, 2, 1, false, false)
	ComputeGenerations(g)
	ComputeOffspring(g, 5)

	var rg *ReplicaGraph
	require.NotPanics(t, func() {
		var err error
		rg, err = Expand(g, 5)
		require.NoError(t, err)
	}, "含回指指针的配方树展开不应崩溃")
	require.NoError(t, AssignEdges(g, rg))

	// 第一代实例取自母液，无来源
	for _, r := range rg.OfSource(1) {
		parent, err := rg.ParentOf(r)
		require.NoError(t, err)
		assert.Nil(t, parent, "第一代实例 %d 不应有取种来源", r.Index)
	}

	// 第二代实例的来源必须是具体的A实例
	for _, r := range rg.OfSource(2) {
		parent, err := rg.ParentOf(r)
		require.NoError(t, err)
		require.NotNil(t, parent)
		assert.Equal(t, 1, parent.Source.ID, "来源实例应属于配方A")
	}
}

func TestAssignEdgesOverflow(t *testing.T) {
	// 人为制造装配不一致：展开后篡改需求，使父实例不足
	g := buildChain(t, 1, 7, true, false)
	ComputeGenerations(g)
	// 跳过ComputeOffspring，A只展开 1+1 个实例，供给不了7个子实例
	rg, err := Expand(g, 5)
	require.NoError(t, err)

	err = AssignEdges(g, rg)
	require.Error(t, err, "父实例不足时应报容量规划错误")
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAddNodeRejectsInvalidInput(t *testing.T) {
	g := NewDependencyGraph()
	require.NoError(t, g.AddNode(0, &Node{ID: 1, Repeat: 1,
		Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}}}))

	assert.Error(t, g.AddNode(0, &Node{ID: 1, Repeat: 1}), "重复编号应被拒绝")
	assert.Error(t, g.AddNode(9, &Node{ID: 2, Repeat: 1}), "未定义的父节点应被拒绝")
	assert.Error(t, g.AddNode(0, &Node{ID: 2, Repeat: 0}), "重复次数为0应被拒绝")

	// 已挂接的节点不允许再次挂接（多父节点拒绝）
	n, ok := g.Get(1)
	require.True(t, ok)
	assert.Error(t, g.AddNode(0, n), "多父节点应被拒绝")
}

func TestFromDesign(t *testing.T) {
	ph := 7.0
	d := &config.Design{
		Title: "au-np-l2",
		Nodes: []config.DesignNode{
			{ID: 1, Parent: 0, Repeat: 2, UVVis: true,
				Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}}},
			{ID: 2, Parent: 1, Repeat: 1, TargetPH: &ph,
				Reagents: []config.Reagent{{Name: "silver", Volume: 0.5}}},
		},
	}
	g, err := FromDesign(d)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	n2, ok := g.Get(2)
	require.True(t, ok)
	require.NotNil(t, n2.TargetPH)
	assert.InDelta(t, 7.0, *n2.TargetPH, 1e-9)
	assert.Equal(t, 1, n2.Parent.ID)
}
