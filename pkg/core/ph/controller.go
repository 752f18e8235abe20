package ph

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/device"
)

// ControlMode 滴定控制模式（对外导出）
// 闭环模式依赖pH探头反馈，重放模式按既有轨迹开环执行
type ControlMode interface {
	controlMode()
}

// ClosedLoop 闭环滴定（对外导出）
type ClosedLoop struct {
	Target float64
}

func (ClosedLoop) controlMode() {}

// Replay 开环重放既有轨迹（对外导出）
type Replay struct {
	Trace *Trace
}

func (Replay) controlMode() {}

// Options 滴定控制参数（对外导出）
type Options struct {
	AcidPump      string
	BasePump      string
	AcidOpts      device.DispenseOptions
	BaseOpts      device.DispenseOptions
	Coeff         float64       // 初始增益系数
	UnitVolumeML  float64       // 单位加液体积
	Tolerance     float64       // 允许偏差
	MaxVolumeML   float64       // 总加液体积上限
	Damping       float64       // 过冲时的增益衰减
	Settle        time.Duration // 每次加液后的稳定时间
	ConfirmSettle time.Duration // 进入容差后的二次确认时间
	Timeout       time.Duration // 单次滴定超时
}

// OptionsFromConfig 从平台配置构造滴定参数（对外导出）
func OptionsFromConfig(cfg *config.PlatformConfig) Options {
	acid := cfg.Pumps[cfg.PH.AcidPump]
	base := cfg.Pumps[cfg.PH.BasePump]
	return Options{
		AcidPump:      cfg.PH.AcidPump,
		BasePump:      cfg.PH.BasePump,
		AcidOpts:      pumpOpts(acid),
		BaseOpts:      pumpOpts(base),
		Coeff:         cfg.PH.Coeff,
		UnitVolumeML:  cfg.PH.UnitVolumeML,
		Tolerance:     cfg.PH.Tolerance,
		MaxVolumeML:   cfg.PH.MaxVolumeML,
		Damping:       cfg.PH.Damping,
		Settle:        cfg.PHSettle(),
		ConfirmSettle: cfg.PHConfirmSettle(),
		Timeout:       cfg.PHTimeout(),
	}
}

func pumpOpts(p config.PumpConfig) device.DispenseOptions {
	opts := device.DispenseOptions{
		InValve:  p.InValve,
		OutValve: p.OutValve,
		SpeedIn:  p.SpeedIn,
		SpeedOut: p.SpeedOut,
	}
	if opts.InValve == "" {
		opts.InValve = device.ValveInlet
	}
	if opts.OutValve == "" {
		opts.OutValve = device.ValveOutlet
	}
	if opts.SpeedIn == 0 {
		opts.SpeedIn = device.DefaultSpeed
	}
	if opts.SpeedOut == 0 {
		opts.SpeedOut = device.SlowSpeed
	}
	return opts
}

// Controller pH闭环滴定控制器（对外导出）
type Controller struct {
	pumps device.PumpController
	meter device.PHMeter
	opt   Options
}

// NewController 创建滴定控制器（对外导出）
func NewController(pumps device.PumpController, meter device.PHMeter, opt Options) *Controller {
	return &Controller{pumps: pumps, meter: meter, opt: opt}
}

// Run 按指定控制模式执行滴定（对外导出）
func (c *Controller) Run(ctx context.Context, mode ControlMode) (*Trace, error) {
	switch m := mode.(type) {
	case ClosedLoop:
		return c.Tune(ctx, m.Target)
	case Replay:
		return m.Trace, c.ReplayTrace(ctx, m.Trace)
	default:
		return nil, fmt.Errorf("未知的滴定控制模式: %T", mode)
	}
}

// Tune 闭环滴定到目标pH（对外导出）
// 每轮：测量 -> 按偏差比例加酸/碱 -> 稳定 -> 复测；连续两次进入
// 容差即成功。加液总量超限或超时记为失败（非致命，轨迹照常落盘）。
// 方向反转（过冲）时按衰减因子收缩增益，防止振荡发散
func (c *Controller) Tune(ctx context.Context, target float64) (*Trace, error) {
	trace := &Trace{Target: target}
	coeff := c.opt.Coeff
	lastDir := DirectionNone
	deadline := time.Now().Add(c.opt.Timeout)

	log.Printf("🧪 开始闭环滴定: 目标pH=%.2f, 容差=%.2f", target, c.opt.Tolerance)

	for {
		measured, err := c.meter.MeasurePH(ctx)
		if err != nil {
			return trace, fmt.Errorf("pH测量失败: %w", err)
		}
		trace.FinalPH = measured

		// 进入容差后延长稳定时间二次确认
		if math.Abs(measured-target) <= c.opt.Tolerance {
			if err := sleep(ctx, c.opt.ConfirmSettle); err != nil {
				return trace, err
			}
			confirm, err := c.meter.MeasurePH(ctx)
			if err != nil {
				return trace, fmt.Errorf("pH确认测量失败: %w", err)
			}
			trace.FinalPH = confirm
			if math.Abs(confirm-target) <= c.opt.Tolerance {
				trace.Success = true
				log.Printf("✅ 滴定成功: pH=%.2f, 总加液=%.3fmL, 步数=%d",
					confirm, trace.VolumeML, len(trace.Steps))
				return trace, nil
			}
			measured = confirm
		}

		if time.Now().After(deadline) {
			log.Printf("❌ 滴定超时: pH=%.2f, 目标=%.2f", measured, target)
			return trace, nil
		}
		if trace.VolumeML > c.opt.MaxVolumeML {
			log.Printf("❌ 滴定加液总量超限: %.3fmL > %.3fmL", trace.VolumeML, c.opt.MaxVolumeML)
			return trace, nil
		}

		dir := DirectionBase
		pump, opts := c.opt.BasePump, c.opt.BaseOpts
		if measured > target {
			dir = DirectionAcid
			pump, opts = c.opt.AcidPump, c.opt.AcidOpts
		}

		// 过冲：方向反转，收缩增益
		if lastDir != DirectionNone && dir != lastDir {
			coeff *= c.opt.Damping
			log.Printf("⚠️ 检测到过冲，增益收缩至 %.3f", coeff)
		}

		volume := coeff * math.Abs(measured-target) * c.opt.UnitVolumeML
		if err := c.pumps.Dispense(ctx, pump, volume, opts); err != nil {
			return trace, fmt.Errorf("滴定加液失败: %w", err)
		}
		trace.Steps = append(trace.Steps, Step{
			Direction:     dir,
			VolumeML:      volume,
			SettleSeconds: c.opt.Settle.Seconds(),
		})
		trace.VolumeML += volume
		lastDir = dir

		if err := sleep(ctx, c.opt.Settle); err != nil {
			return trace, err
		}
	}
}

// ReplayTrace 开环重放既有轨迹（对外导出）
// 逐条按记录的体积与稳定时间执行，不做任何传感
func (c *Controller) ReplayTrace(ctx context.Context, trace *Trace) error {
	if trace == nil || len(trace.Steps) == 0 {
		return fmt.Errorf("滴定轨迹为空，无法重放")
	}
	log.Printf("🔁 开环重放滴定轨迹: %d 步, 目标pH=%.2f", len(trace.Steps), trace.Target)

	for i, step := range trace.Steps {
		pump, opts := c.opt.BasePump, c.opt.BaseOpts
		if step.Direction == DirectionAcid {
			pump, opts = c.opt.AcidPump, c.opt.AcidOpts
		}
		if err := c.pumps.Dispense(ctx, pump, step.VolumeML, opts); err != nil {
			return fmt.Errorf("重放第 %d 步加液失败: %w", i+1, err)
		}
		settle := time.Duration(step.SettleSeconds * float64(time.Second))
		if err := sleep(ctx, settle); err != nil {
			return err
		}
	}
	return nil
}

// sleep 可取消的定时等待
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
