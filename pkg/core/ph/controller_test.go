package ph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/device"
)

// testOptions 用极短的等待时间加速测试
func testOptions() Options {
	return Options{
		AcidPump:      "ph_acid",
		BasePump:      "ph_base",
		AcidOpts:      device.DispenseOptions{InValve: device.ValveInlet, OutValve: device.ValveOutlet},
		BaseOpts:      device.DispenseOptions{InValve: device.ValveInlet, OutValve: device.ValveOutlet},
		Coeff:         2.5,
		UnitVolumeML:  0.010,
		Tolerance:     0.2,
		MaxVolumeML:   3.0,
		Damping:       0.6,
		Settle:        time.Millisecond,
		ConfirmSettle: time.Millisecond,
		Timeout:       5 * time.Second,
	}
}

func TestTuneConverges(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	sim.PHReadings = []float64{8.0, 7.5, 7.1, 6.95}

	c := NewController(sim, sim, testOptions())
	trace, err := c.Tune(context.Background(), 7.0)
	require.NoError(t, err)

	assert.True(t, trace.Success, "两次连续进入容差后应判定成功")
	assert.InDelta(t, 6.95, trace.FinalPH, 1e-9)

	// 前两轮读数高于目标，加液方向应为酸
	require.Len(t, trace.Steps, 2)
	for i, step := range trace.Steps {
		assert.Equal(t, DirectionAcid, step.Direction, "第 %d 步方向错误", i+1)
	}
	// 第一步体积 = 2.5 * (8.0-7.0) * 0.010
	assert.InDelta(t, 0.025, trace.Steps[0].VolumeML, 1e-9)
	assert.InDelta(t, 0.0125, trace.Steps[1].VolumeML, 1e-9)
}

func TestTuneDampsOnOvershoot(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	// 酸 -> 过冲到碱侧 -> 回到容差内
	sim.PHReadings = []float64{8.0, 6.0, 7.1, 7.05}

	c := NewController(sim, sim, testOptions())
	trace, err := c.Tune(context.Background(), 7.0)
	require.NoError(t, err)
	require.True(t, trace.Success)

	require.Len(t, trace.Steps, 2)
	assert.Equal(t, DirectionAcid, trace.Steps[0].Direction)
	assert.Equal(t, DirectionBase, trace.Steps[1].Direction)
	// 过冲后增益收缩: 2.5*0.6 * (7.0-6.0) * 0.010
	assert.InDelta(t, 0.015, trace.Steps[1].VolumeML, 1e-9)
}

func TestTuneFailsOnVolumeCap(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	sim.PHReadings = []float64{13.0} // 始终远离目标（耗尽后重复）

	opt := testOptions()
	opt.MaxVolumeML = 0.3
	c := NewController(sim, sim, opt)

	trace, err := c.Tune(context.Background(), 7.0)
	require.NoError(t, err, "体积超限是记录为失败的正常终止，不是错误")
	assert.False(t, trace.Success)
	assert.Greater(t, trace.VolumeML, opt.MaxVolumeML)
}

func TestTuneFailsOnTimeout(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	sim.PHReadings = []float64{13.0}

	opt := testOptions()
	opt.Timeout = 10 * time.Millisecond
	opt.Settle = 5 * time.Millisecond
	c := NewController(sim, sim, opt)

	trace, err := c.Tune(context.Background(), 7.0)
	require.NoError(t, err)
	assert.False(t, trace.Success)
}

func TestReplayTrace(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	c := NewController(sim, sim, testOptions())

	trace := &Trace{
		Target: 7.0,
		Steps: []Step{
			{Direction: DirectionAcid, VolumeML: 0.025, SettleSeconds: 0.001},
			{Direction: DirectionBase, VolumeML: 0.010, SettleSeconds: 0.001},
		},
		Success: true,
	}
	_, err := c.Run(context.Background(), Replay{Trace: trace})
	require.NoError(t, err)

	// 重放不做任何传感，只按轨迹加液
	ops := sim.Ops()
	require.Len(t, ops, 2)
	assert.True(t, strings.HasPrefix(ops[0], "dispense ph_acid 0.025"))
	assert.True(t, strings.HasPrefix(ops[1], "dispense ph_base 0.010"))
}

func TestReplayEmptyTrace(t *testing.T) {
	sim, _ := device.NewSimPlatform()
	c := NewController(sim, sim, testOptions())
	_, err := c.Run(context.Background(), Replay{Trace: &Trace{}})
	assert.Error(t, err, "空轨迹不允许重放")
}

func TestTraceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	trace := &Trace{
		Target:   7.0,
		Steps:    []Step{{Direction: DirectionAcid, VolumeML: 0.025, SettleSeconds: 10}},
		FinalPH:  6.95,
		VolumeML: 0.025,
		Success:  true,
	}
	require.NoError(t, trace.Save(dir))

	loaded, err := LoadTrace(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, trace, loaded)

	// 不存在的目录返回nil轨迹
	missing, err := LoadTrace(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
