package engine

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/core/ph"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/device"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

// memRecorder 内存运行记录，测试用
type memRecorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *memRecorder) RecordEvent(event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// testConfig 全部等待时间压缩到毫秒级
func testConfig() *config.PlatformConfig {
	cfg := config.Default()
	cfg.PreflushPumps = []string{"gold"}
	cfg.Timing.GrowthTime = "1ms"
	cfg.Timing.ReductantWait = "1ms"
	cfg.PH.Settle = "1ms"
	cfg.PH.ConfirmSettle = "1ms"
	return cfg
}

// testDesign 两代设计：A(重复1, 表征) -> B(重复1, 目标pH)
func testDesign() *config.Design {
	target := 7.0
	return &config.Design{
		Title: "au-seed-growth",
		Nodes: []config.DesignNode{
			{ID: 1, Parent: 0, Repeat: 1, UVVis: true,
				Reagents: []config.Reagent{{Name: "gold", Volume: 1.0}, {Name: "reductant", Volume: 0.2}}},
			{ID: 2, Parent: 1, Repeat: 1, TargetPH: &target,
				Reagents: []config.Reagent{{Name: "silver", Volume: 0.5}}},
		},
	}
}

func setup(t *testing.T) (*config.PlatformConfig, *xpfolder.Store, *wheel.Schedule) {
	t.Helper()
	cfg := testConfig()
	store, err := xpfolder.NewStore(t.TempDir())
	require.NoError(t, err)
	sched, err := Compile(testDesign(), cfg, store)
	require.NoError(t, err)
	return cfg, store, sched
}

func TestCompilePipeline(t *testing.T) {
	_, store, sched := setup(t)

	// A: 1 + 1(uv) + ceil(1/5)=1 = 3个实例；B: 1个
	assert.Len(t, sched.ExperimentSlots(1), 3)
	assert.Len(t, sched.ExperimentSlots(2), 1)
	assert.FileExists(t, store.SchedulePath())

	// 每个实验目录都已生成
	for _, slot := range append(sched.ExperimentSlots(1), sched.ExperimentSlots(2)...) {
		assert.True(t, store.HasExperiment(slot.Exp.Index), "实验 %d 目录缺失", slot.Exp.Index)
	}

	// B的取种来源不是表征瓶
	bSlot := sched.ExperimentSlots(2)[0]
	edge, ok := sched.EdgeTo(bSlot.Exp.Index)
	require.True(t, ok)
	uvSlot := sched.ExperimentSlots(1)[0]
	assert.NotEqual(t, uvSlot.Index, edge.From)
}

func TestEngineFullRun(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.1, 7.05}
	recorder := &memRecorder{}
	eng := New(cfg, platform, store, nil, recorder)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}))
	assert.Equal(t, StateDone, eng.State())

	ops := strings.Join(sim.Ops(), "\n")
	// 预冲洗、配液顺序、种子两段式抽取都应出现在操作序列里
	assert.Contains(t, ops, "dispense gold 2.000", "缺少预冲洗")
	assert.Contains(t, ops, "dispense gold 1.000")
	assert.Contains(t, ops, "dispense reductant 0.200")
	assert.Contains(t, ops, "partial seed in=1.000 out=0.500")
	assert.Contains(t, ops, "dispense seed 0.500")
	assert.Contains(t, ops, "dispense silver 0.500")
	// 配液顺序：gold先于reductant
	assert.Less(t, strings.Index(ops, "dispense gold 1.000"), strings.Index(ops, "dispense reductant"))

	// 清洗风扇开启、生长等待前补充探头存放液
	assert.Contains(t, ops, "stir wash_fan 35")
	assert.Contains(t, ops, "dispense kcl 2.000")

	// 每代配液结束后向冲洗瓶排液
	assert.Equal(t, 2, strings.Count(ops, "dispense surfactant 2.000"), "每代应排液一次")
	// 每条光谱采集后清洗采样回路
	assert.Contains(t, ops, "dispense water 3.000 water_stock->sample_waste")

	// 表征瓶有光谱文件，参比光谱只采集一次
	uvExp := sched.ExperimentSlots(1)[0].Exp.Index
	assert.FileExists(t, filepath.Join(store.Dir(uvExp), xpfolder.SpectrumFileName))
	assert.FileExists(t, filepath.Join(store.Root(), xpfolder.ReferenceFileName))
	assert.Equal(t, 1, strings.Count(ops, "spectrum ref=true"))

	// pH实验有滴定轨迹且成功
	bExp := sched.ExperimentSlots(2)[0].Exp.Index
	trace, err := ph.LoadTrace(store.Dir(bExp))
	require.NoError(t, err)
	require.NotNil(t, trace)
	assert.True(t, trace.Success)

	// 事件序列覆盖运行全程
	types := recorder.types()
	assert.Contains(t, types, events.EventRunStarted)
	assert.Contains(t, types, events.EventGenerationBegin)
	assert.Contains(t, types, events.EventTransferDone)
	assert.Contains(t, types, events.EventTitrationDone)
	assert.Contains(t, types, events.EventAnalysisDone)
	assert.Contains(t, types, events.EventRunFinished)
}

func TestEngineSkipsMissingGeneration(t *testing.T) {
	cfg, store, sched := setup(t)

	// 删除第2代实验的参数文件，模拟优化器尚未产出
	bExp := sched.ExperimentSlots(2)[0].Exp.Index
	require.NoError(t, os.Remove(filepath.Join(store.Dir(bExp), xpfolder.ParamsFileName)))

	sim, platform := device.NewSimPlatform()
	recorder := &memRecorder{}
	eng := New(cfg, platform, store, nil, recorder)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}),
		"目录缺失的代应跳过而不中止运行")

	types := recorder.types()
	assert.Contains(t, types, events.EventGenerationSkip)
	assert.Contains(t, types, events.EventRunFinished)

	// 第2代的配液不应发生
	ops := strings.Join(sim.Ops(), "\n")
	assert.NotContains(t, ops, "dispense silver")
}

func TestEngineInstrumentFault(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.FailPump = "gold"
	eng := New(cfg, platform, store, nil, nil)

	err := eng.Run(context.Background(), sched, RunOptions{})
	require.Error(t, err, "仪器故障应中止运行")
	var f *InstrumentFault
	assert.ErrorAs(t, err, &f)
}

func TestEngineReactionsOnly(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.0, 7.0}
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{ReactionsOnly: true}))

	// 不做分析：无光谱采集、无采样回路清洗
	ops := strings.Join(sim.Ops(), "\n")
	assert.NotContains(t, ops, "spectrum")
	assert.NotContains(t, ops, "sample_waste")
	// 滴定的探头工位往返结束后转轮恢复正向
	assert.False(t, eng.Tracker().Reversed())
}

func TestEngineAnalysisOnly(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{AnalysisOnly: true}))

	ops := strings.Join(sim.Ops(), "\n")
	assert.Contains(t, ops, "spectrum")
	// 只做分析时不应有任何试剂配液，采样回路清洗用水除外
	assert.NotContains(t, ops, "dispense gold")
	assert.NotContains(t, ops, "dispense silver")
	assert.NotContains(t, ops, "dispense seed")
	assert.Contains(t, ops, "dispense water 3.000 water_stock->sample_waste")
}

func TestEngineAcidPurgeAndCalibration(t *testing.T) {
	cfg, store, sched := setup(t)
	cfg.Cleaning.AcidPurge = true

	// 预置标定记录，运行开始时应用到探头
	require.NoError(t, ph.SaveCalibration(store.Root(), device.Calibration{
		PH4: 2.01, PH7: 1.65, PH10: 1.31, Time: "2026-08-01T00:00:00Z",
	}))

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.0, 7.0}
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}))

	ops := strings.Join(sim.Ops(), "\n")
	assert.Contains(t, ops, "update_calibration")
	assert.Contains(t, ops, "dispense ph_acid 5.000", "结束后应执行酸洗")
}

func TestEngineRewindRestoresDirection(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.0, 7.0}
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}))

	// 回绕由成对的reverse包裹，结束后转轮恢复正向
	reverses := 0
	for _, op := range sim.Ops() {
		if strings.HasPrefix(op, "reverse") {
			reverses++
		}
	}
	assert.Equal(t, 0, reverses%2, "反转操作应成对出现")
	assert.False(t, eng.Tracker().Reversed())
}

// replayPositions 重放操作序列中的转轮簿记，
// 返回每个匹配操作发生时的逻辑位置
func replayPositions(t *testing.T, ops []string, capacity int, match string) []int {
	t.Helper()
	pos, dir := 0, 1
	var out []int
	for _, op := range ops {
		switch {
		case strings.HasPrefix(op, "turn "):
			fields := strings.Fields(op)
			n, err := strconv.Atoi(fields[len(fields)-1])
			require.NoError(t, err)
			pos = ((pos+dir*n)%capacity + capacity) % capacity
		case strings.HasPrefix(op, "reverse "):
			dir = -dir
		case strings.HasPrefix(op, match):
			out = append(out, pos)
		}
	}
	return out
}

func TestEngineWheelAlignment(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.1, 7.05}
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}))
	capacity := cfg.Wheel.Capacity

	// 每个实验槽位配液时，转轮位置应与槽位编号一致——
	// 预冲洗/冲洗槽位各转一格，使跨代对齐不漂移
	var gen1Slots []int
	for _, slot := range sched.ExperimentSlots(1) {
		gen1Slots = append(gen1Slots, slot.Index)
	}
	gen1Pos := replayPositions(t, sim.Ops(), capacity, "dispense gold 1.000")
	assert.Equal(t, gen1Slots, gen1Pos, "第一代配液位置应逐槽对准")

	bSlot := sched.ExperimentSlots(2)[0].Index
	gen2Pos := replayPositions(t, sim.Ops(), capacity, "dispense silver 0.500")
	assert.Equal(t, []int{bSlot}, gen2Pos, "第二代配液位置应对准，种子转移净位移为零")

	// 运行结束后位置等于已占用的槽位总数
	used := 0
	for _, gen := range sched.Generations() {
		used += len(gen)
	}
	assert.Equal(t, used%capacity, eng.Tracker().Position())
}

func TestEngineTitratesAtProbeStation(t *testing.T) {
	cfg, store, sched := setup(t)

	sim, platform := device.NewSimPlatform()
	sim.PHReadings = []float64{7.1, 7.05}
	eng := New(cfg, platform, store, nil, nil)

	require.NoError(t, eng.Run(context.Background(), sched, RunOptions{}))

	// 全部pH测量都应发生在探头工位上
	bSlot := sched.ExperimentSlots(2)[0].Index
	want := (bSlot + cfg.Wheel.ProbeOffset) % cfg.Wheel.Capacity
	positions := replayPositions(t, sim.Ops(), cfg.Wheel.Capacity, "measure_ph")
	require.NotEmpty(t, positions)
	for _, pos := range positions {
		assert.Equal(t, want, pos, "pH测量时样品瓶应位于探头工位")
	}
}
