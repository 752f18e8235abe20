package ph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croningp/NanoDiscovery/pkg/device"
)

func TestCalibratorThreePoints(t *testing.T) {
	sim, platform := device.NewSimPlatform()
	c := NewCalibrator(platform.PH)

	// 不支持的缓冲液
	assert.Error(t, c.MeasureBuffer(context.Background(), 5))

	// 三点未齐备时不能提交
	require.NoError(t, c.MeasureBuffer(context.Background(), 4))
	_, err := c.Commit()
	assert.Error(t, err, "缺标定点时提交应报错")

	require.NoError(t, c.MeasureBuffer(context.Background(), 7))
	require.NoError(t, c.MeasureBuffer(context.Background(), 10))
	cal, err := c.Commit()
	require.NoError(t, err)
	assert.InDelta(t, 1.65, cal.PH7, 1e-9)
	assert.NotEmpty(t, cal.Time)

	// 提交后已应用到探头
	assert.Contains(t, sim.Ops(), "update_calibration")
}

func TestCalibrationRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// 无记录时返回nil
	cal, err := LoadCalibration(dir)
	require.NoError(t, err)
	assert.Nil(t, cal)

	want := device.Calibration{PH4: 2.01, PH7: 1.65, PH10: 1.31, Time: "2026-08-01T00:00:00Z"}
	require.NoError(t, SaveCalibration(dir, want))

	got, err := LoadCalibration(dir)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}
