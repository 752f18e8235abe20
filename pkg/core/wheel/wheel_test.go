package wheel

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/graph"
)

// buildCompiled 构建并编译 root -> A(repeat=3, uv) -> B(repeat=2) 的调度
func buildCompiled(t *testing.T, capacity int) (*graph.DependencyGraph, *graph.ReplicaGraph, *Schedule, error) {
	t.Helper()
	g := graph.NewDependencyGraph()
	require.NoError(t, g.AddNode(0, &graph.Node{
		ID: 1, Repeat: 3, UVVis: true,
		Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}, {Name: "reductant", Volume: 0.2}},
	}))
	require.NoError(t, g.AddNode(1, &graph.Node{
		ID: 2, Repeat: 2,
		Reagents: []config.Reagent{{Name: "silver", Volume: 0.5}},
	}))
	graph.ComputeGenerations(g)
	graph.ComputeOffspring(g, 5)

	rg, err := graph.Expand(g, 5)
	require.NoError(t, err)
	require.NoError(t, graph.AssignEdges(g, rg))

	s, err := Compile("test", g, rg, capacity)
	return g, rg, s, err
}

func TestCompileLayout(t *testing.T) {
	_, rg, s, err := buildCompiled(t, 24)
	require.NoError(t, err)

	// A: 3 + 1(uv) + ceil(2/5)=1 = 5个实例；B: 2个实例
	// 槽位总数 = (2+5) + (2+2) = 11
	require.Equal(t, 5+2, rg.Len())
	require.Len(t, s.Slots, 11)

	// 每代以预冲洗开始、冲洗结束
	assert.Equal(t, ExpPreflush, s.Slots[0].Exp.Kind)
	assert.Equal(t, ExpFlush, s.Slots[6].Exp.Kind)
	assert.Equal(t, ExpPreflush, s.Slots[7].Exp.Kind)
	assert.Equal(t, ExpFlush, s.Slots[10].Exp.Kind)

	// 第1代实验槽位带表征标记的只有第一个实例
	gen1 := s.ExperimentSlots(1)
	require.Len(t, gen1, 5)
	assert.True(t, gen1[0].UVVis)
	for _, slot := range gen1[1:] {
		assert.False(t, slot.UVVis)
	}

	// B的每个实例有一条入边，来源是A的非表征实例
	gen2 := s.ExperimentSlots(2)
	require.Len(t, gen2, 2)
	for _, slot := range gen2 {
		edge, ok := s.EdgeTo(slot.Exp.Index)
		require.True(t, ok, "实验 %d 缺少取种边", slot.Exp.Index)
		assert.NotEqual(t, gen1[0].Index, edge.From, "表征瓶不应作为取种来源")
	}
}

func TestCompileCapacityOverflow(t *testing.T) {
	// 11个槽位的需求放不进10槽转轮，编译必须硬性失败
	_, _, _, err := buildCompiled(t, 10)
	require.Error(t, err)
	var cfgErr *graph.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr, "容量溢出应报ConfigurationError")
}

func TestScheduleRoundTrip(t *testing.T) {
	_, _, s, err := buildCompiled(t, 24)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schedule.json")
	require.NoError(t, s.Save(path))

	loaded, err := LoadSchedule(path)
	require.NoError(t, err)
	assert.Equal(t, s.Capacity, loaded.Capacity)
	require.Len(t, loaded.Slots, len(s.Slots))
	for i := range s.Slots {
		assert.Equal(t, s.Slots[i].Exp, loaded.Slots[i].Exp, "槽位 %d 内容不一致", i)
		assert.Equal(t, s.Slots[i].Step, loaded.Slots[i].Step)
		assert.Equal(t, s.Slots[i].UVVis, loaded.Slots[i].UVVis)
	}
	assert.Equal(t, s.Edges, loaded.Edges)
}

func TestExpRefJSON(t *testing.T) {
	cases := map[string]ExpRef{
		`"preflush"`: {Kind: ExpPreflush},
		`"flush"`:    {Kind: ExpFlush},
		`7`:          Experiment(7),
		`null`:       {Kind: ExpEmpty},
	}
	for raw, want := range cases {
		var got ExpRef
		require.NoError(t, json.Unmarshal([]byte(raw), &got), "解析 %s 失败", raw)
		assert.Equal(t, want, got)

		data, err := json.Marshal(want)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(data))
	}
}

func TestPlanTransfer(t *testing.T) {
	plan := PlanTransfer(5, 0, 14, 24)
	assert.Equal(t, 15, plan.ToSource)
	assert.Equal(t, 19, plan.SourceToDest)
	assert.Equal(t, 14, plan.Restore)

	// 三段转动净效果必须是整数圈
	assert.Equal(t, 0, (plan.ToSource+plan.SourceToDest+plan.Restore)%24)

	// 来源恰好在转移臂下时无需预转动
	plan = PlanTransfer(14, 20, 14, 24)
	assert.Equal(t, 0, plan.ToSource)
	assert.Equal(t, 6, plan.SourceToDest)
	assert.Equal(t, 0, (plan.ToSource+plan.SourceToDest+plan.Restore)%24)
}

func TestTracker(t *testing.T) {
	tr := NewTracker(24)
	tr.Advance(15)
	assert.Equal(t, 15, tr.Position())
	tr.Advance(19)
	assert.Equal(t, (15+19)%24, tr.Position())
	assert.Equal(t, 34, tr.Turns())

	tr.Reverse()
	tr.Advance(10)
	assert.Equal(t, 0, tr.Position())
	assert.True(t, tr.Reversed())
	tr.Reverse()
	assert.False(t, tr.Reversed())
}
