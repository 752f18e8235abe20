package device

import (
	"context"
	"fmt"
	"sync"
)

// SimPlatform 模拟平台（对外导出）
// 记录全部设备操作序列，供单元测试断言与干跑（dry-run）模式使用
type SimPlatform struct {
	mu  sync.Mutex
	ops []string

	// PHReadings 预设的pH读数序列，按调用顺序消费；耗尽后重复最后一个
	PHReadings []float64
	phIndex    int

	// FailPump 设置后，对该泵的操作返回错误（用于InstrumentFault路径测试）
	FailPump string

	calibration Calibration
}

// NewSimPlatform 创建模拟平台（对外导出）
func NewSimPlatform() (*SimPlatform, *Platform) {
	sim := &SimPlatform{}
	return sim, &Platform{
		Pumps: sim,
		Wheel: sim,
		PH:    sim,
		UV:    sim,
		Stir:  sim,
	}
}

// record 记录一次设备操作
func (s *SimPlatform) record(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, fmt.Sprintf(format, args...))
}

// Ops 返回已记录的操作序列副本（对外导出）
func (s *SimPlatform) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ops))
	copy(out, s.ops)
	return out
}

// Reset 清空操作记录（对外导出）
func (s *SimPlatform) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = s.ops[:0]
}

// Dispense 实现PumpController接口
func (s *SimPlatform) Dispense(ctx context.Context, pump string, volume float64, opts DispenseOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pump == s.FailPump {
		return fmt.Errorf("泵 %s 通信失败", pump)
	}
	s.record("dispense %s %.3f %s->%s", pump, volume, opts.InValve, opts.OutValve)
	return nil
}

// PartialDispense 实现PumpController接口
func (s *SimPlatform) PartialDispense(ctx context.Context, pump string, volumeIn, volumeOut float64, opts DispenseOptions) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if pump == s.FailPump {
		return 0, fmt.Errorf("泵 %s 通信失败", pump)
	}
	s.record("partial %s in=%.3f out=%.3f", pump, volumeIn, volumeOut)
	return volumeIn - volumeOut, nil
}

// TurnWheel 实现WheelDriver接口
func (s *SimPlatform) TurnWheel(ctx context.Context, wheel string, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record("turn %s %d", wheel, n)
	return nil
}

// ReverseWheel 实现WheelDriver接口
func (s *SimPlatform) ReverseWheel(ctx context.Context, wheel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record("reverse %s", wheel)
	return nil
}

// MoveMotorToPosition 实现WheelDriver接口
func (s *SimPlatform) MoveMotorToPosition(ctx context.Context, motor string, position int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record("move %s %d", motor, position)
	return nil
}

// HomeMotor 实现WheelDriver接口
func (s *SimPlatform) HomeMotor(ctx context.Context, motor string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record("home %s", motor)
	return nil
}

// MeasurePH 实现PHMeter接口，按预设序列返回读数
func (s *SimPlatform) MeasurePH(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.PHReadings) == 0 {
		return 7.0, nil
	}
	idx := s.phIndex
	if idx >= len(s.PHReadings) {
		idx = len(s.PHReadings) - 1
	} else {
		s.phIndex++
	}
	s.ops = append(s.ops, fmt.Sprintf("measure_ph %.2f", s.PHReadings[idx]))
	return s.PHReadings[idx], nil
}

// MeasureAnalog 实现PHMeter接口
func (s *SimPlatform) MeasureAnalog(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	s.record("measure_analog")
	return 1.65, 0.01, nil
}

// UpdateCalibration 实现PHMeter接口
func (s *SimPlatform) UpdateCalibration(cal Calibration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibration = cal
	s.ops = append(s.ops, "update_calibration")
}

// AcquireSpectrum 实现Spectrometer接口，返回一条固定形状的假光谱
func (s *SimPlatform) AcquireSpectrum(ctx context.Context, reference bool) (*Spectrum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.record("spectrum ref=%v", reference)
	return &Spectrum{
		Wavelengths: []float64{400, 500, 600, 700},
		Intensities: []float64{0.1, 0.8, 0.4, 0.2},
		Reference:   reference,
	}, nil
}

// SetStirRate 实现StirController接口
func (s *SimPlatform) SetStirRate(ctx context.Context, pin string, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.record("stir %s %d", pin, value)
	return nil
}
