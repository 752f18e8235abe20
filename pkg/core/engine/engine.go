package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/core/instrument"
	"github.com/croningp/NanoDiscovery/pkg/core/ph"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/device"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

// RunOptions 运行范围选项（对外导出）
type RunOptions struct {
	ReactionsOnly bool // 只做配液，不做分析
	AnalysisOnly  bool // 只做分析，不做配液
}

// RunRecorder 运行记录落库接口（对外导出）
// 由storage层实现；为nil时跳过落库
type RunRecorder interface {
	RecordEvent(event *events.Event) error
}

// Engine 调度执行器（对外导出）
// 消费编译产物，驱动转轮按代执行配液、生长、分析；
// 单主控制流，仅探头/转移臂清洗在后台与后续步骤重叠
type Engine struct {
	cfg      *config.PlatformConfig
	platform *device.Platform
	store    *xpfolder.Store
	bus      *events.Bus
	recorder RunRecorder

	probeGuard *instrument.Guard
	armGuard   *instrument.Guard
	tracker    *wheel.Tracker

	runID string
	state State
}

// New 创建执行器（对外导出）
func New(cfg *config.PlatformConfig, platform *device.Platform, store *xpfolder.Store, bus *events.Bus, recorder RunRecorder) *Engine {
	return &Engine{
		cfg:        cfg,
		platform:   platform,
		store:      store,
		bus:        bus,
		recorder:   recorder,
		probeGuard: instrument.NewGuard("ph_probe"),
		armGuard:   instrument.NewGuard("seed_arm"),
		tracker:    wheel.NewTracker(cfg.Wheel.Capacity),
		runID:      uuid.New().String(),
		state:      StateIdle,
	}
}

// RunID 本次运行编号（对外导出）
func (e *Engine) RunID() string {
	return e.runID
}

// State 当前状态（对外导出）
func (e *Engine) State() State {
	return e.state
}

// Tracker 转轮位置簿记（对外导出）
func (e *Engine) Tracker() *wheel.Tracker {
	return e.tracker
}

// Run 执行整个调度（对外导出）
// 逐代推进；实验目录缺失的代记录后跳过，仪器故障直接中止
func (e *Engine) Run(ctx context.Context, sched *wheel.Schedule, opts RunOptions) error {
	log.Printf("🚀 开始运行: %s (run=%s)", sched.Title, e.runID)
	e.publish(events.NewEvent(events.EventRunStarted, e.runID, 0, -1, sched.Title))

	// 清洗风扇整个运行期间保持开启
	if err := e.platform.Stir.SetStirRate(ctx, e.cfg.Stirrer.WashFanPin, e.cfg.Stirrer.Speed); err != nil {
		return fault("开启清洗风扇", err)
	}
	// 有标定记录时应用到探头
	if cal, err := ph.LoadCalibration(e.store.Root()); err != nil {
		return err
	} else if cal != nil {
		e.platform.PH.UpdateCalibration(*cal)
		log.Printf("✅ 已应用pH探头标定（%s）", cal.Time)
	}

	generations := sched.Generations()
	for i, slots := range generations {
		gen := i + 1
		if len(slots) == 0 {
			continue
		}
		if err := e.checkInputs(gen, slots); err != nil {
			log.Printf("⚠️ %v，跳过该代", err)
			e.publish(events.NewEvent(events.EventGenerationSkip, e.runID, gen, -1, err.Error()))
			continue
		}
		if err := e.runGeneration(ctx, sched, gen, slots, opts); err != nil {
			e.publish(events.NewEvent(events.EventRunFailed, e.runID, gen, -1, err.Error()))
			return err
		}
	}

	// 配置启用时运行结束后酸洗管路
	if e.cfg.Cleaning.AcidPurge {
		if err := e.acidPurge(ctx); err != nil {
			return err
		}
	}

	e.state = StateDone
	log.Printf("✅ 运行完成: %s", sched.Title)
	e.publish(events.NewEvent(events.EventRunFinished, e.runID, len(generations), -1, sched.Title))
	return nil
}

// acidPurge 用酸泵冲洗全部试剂管路
func (e *Engine) acidPurge(ctx context.Context) error {
	pump := e.cfg.PH.AcidPump
	if err := e.platform.Pumps.Dispense(ctx, pump, e.cfg.Cleaning.PurgeVolumeML, e.dispenseOpts(pump)); err != nil {
		return fault("酸洗管路", err)
	}
	log.Printf("✅ 酸洗完成（%.1f mL）", e.cfg.Cleaning.PurgeVolumeML)
	return nil
}

// checkInputs 检查该代全部实验目录是否就绪
func (e *Engine) checkInputs(gen int, slots []wheel.Slot) error {
	for _, slot := range slots {
		if slot.Exp.Kind != wheel.ExpExperiment {
			continue
		}
		if !e.store.HasExperiment(slot.Exp.Index) {
			return &MissingInputError{Generation: gen, Exp: slot.Exp.Index}
		}
	}
	return nil
}

// runGeneration 单代状态机：
// Idle -> Preflushing -> Dispensing -> WaitingGrowth -> Analyzing -> Rewinding -> Done
func (e *Engine) runGeneration(ctx context.Context, sched *wheel.Schedule, gen int, slots []wheel.Slot, opts RunOptions) error {
	log.Printf("⏱️ 第 %d 代开始（%d 个槽位）", gen, len(slots))
	e.publish(events.NewEvent(events.EventGenerationBegin, e.runID, gen, -1, ""))
	e.tracker.ResetTurns()

	exps := experimentsOf(slots)

	if !opts.AnalysisOnly {
		e.state = StatePreflushing
		if err := e.preflush(ctx); err != nil {
			return err
		}

		e.state = StateDispensing
		for _, slot := range exps {
			if err := e.dispenseExperiment(ctx, sched, gen, slot); err != nil {
				return err
			}
		}

		if err := e.flush(ctx); err != nil {
			return err
		}

		// 生长等待前给探头存放瓶补充KCl
		if err := e.storeProbe(ctx); err != nil {
			return err
		}

		e.state = StateWaitingGrowth
		log.Printf("⏱️ 第 %d 代生长等待 %v", gen, e.cfg.GrowthTime())
		if err := sleep(ctx, e.cfg.GrowthTime()); err != nil {
			return err
		}
	}

	if !opts.ReactionsOnly {
		if err := e.analyzeGeneration(ctx, gen, exps); err != nil {
			return err
		}
	}

	e.state = StateDone
	log.Printf("✅ 第 %d 代完成", gen)
	e.publish(events.NewEvent(events.EventGenerationDone, e.runID, gen, -1, ""))
	return nil
}

// preflush 预冲洗本代使用的全部试剂管路
// 冲洗液落入本代的预冲洗槽位，完成后进位一槽对准首个实验槽位
func (e *Engine) preflush(ctx context.Context) error {
	for _, pump := range e.cfg.PreflushPumps {
		opts := e.dispenseOpts(pump)
		if err := e.platform.Pumps.Dispense(ctx, pump, e.cfg.PreflushVolume, opts); err != nil {
			return fault(fmt.Sprintf("预冲洗泵 %s", pump), err)
		}
	}
	log.Printf("✅ 预冲洗完成（%d 个泵）", len(e.cfg.PreflushPumps))
	return e.turn(ctx, 1)
}

// flush 向本代末尾的冲洗瓶排液，完成后进位一槽
// 与预冲洗槽位配合，使每代净转动数等于该代占用的槽位数
func (e *Engine) flush(ctx context.Context) error {
	pump := e.cfg.FlushPump
	if err := e.platform.Pumps.Dispense(ctx, pump, e.cfg.FlushVolume, e.dispenseOpts(pump)); err != nil {
		return fault("冲洗瓶排液", err)
	}
	return e.turn(ctx, 1)
}

// dispenseExperiment 处理一个实验槽位：取种、按序配液、滴定，随后进位一槽
func (e *Engine) dispenseExperiment(ctx context.Context, sched *wheel.Schedule, gen int, slot wheel.Slot) error {
	exp := slot.Exp.Index
	params, err := e.store.ReadParams(exp)
	if err != nil {
		return err
	}

	// 开启反应环搅拌
	if err := e.platform.Stir.SetStirRate(ctx, e.cfg.Stirrer.RingPin, e.cfg.Stirrer.Speed); err != nil {
		return fault("开启搅拌", err)
	}

	// 第二代起先从来源瓶取种
	if edge, ok := sched.EdgeTo(exp); ok {
		if err := e.transferSeed(ctx, edge); err != nil {
			return err
		}
	}

	// 严格按配方顺序加液：先建立离子强度，还原剂在后
	for _, reagent := range params.Reagents {
		opts := e.dispenseOpts(reagent.Name)
		if err := e.platform.Pumps.Dispense(ctx, reagent.Name, reagent.Volume, opts); err != nil {
			return fault(fmt.Sprintf("实验 %d 加液 %s", exp, reagent.Name), err)
		}
		if isReductant(reagent.Name) {
			if err := sleep(ctx, e.cfg.ReductantWait()); err != nil {
				return err
			}
		}
	}
	e.publish(events.NewEvent(events.EventDispenseDone, e.runID, gen, exp, ""))

	// 目标pH设置时执行闭环滴定（已有成功轨迹时开环重放）
	if params.TargetPH != nil {
		if err := e.titrate(ctx, gen, exp, *params.TargetPH); err != nil {
			return err
		}
	}

	// 关闭搅拌并进位到下一槽
	if err := e.platform.Stir.SetStirRate(ctx, e.cfg.Stirrer.RingPin, 0); err != nil {
		return fault("关闭搅拌", err)
	}
	return e.turn(ctx, 1)
}

// storeProbe 探头放回存放瓶并补充KCl，防止生长等待期间干涸
func (e *Engine) storeProbe(ctx context.Context) error {
	if err := e.probeGuard.Acquire(ctx); err != nil {
		return fault("获取pH探头", err)
	}
	defer e.probeGuard.Release()

	opts := e.dispenseOpts(device.PumpKCl)
	if err := e.platform.Pumps.Dispense(ctx, device.PumpKCl, e.cfg.Cleaning.KClVolumeML, opts); err != nil {
		return fault("补充探头存放液", err)
	}
	return nil
}

// titrate 独占pH探头执行滴定，轨迹落盘，清洗后台进行
// 滴定前把样品瓶转到探头工位，结束后原路退回，净位移为零
func (e *Engine) titrate(ctx context.Context, gen, exp int, target float64) error {
	if err := e.probeGuard.Acquire(ctx); err != nil {
		return fault("获取pH探头", err)
	}

	if err := e.turn(ctx, e.cfg.Wheel.ProbeOffset); err != nil {
		e.probeGuard.Release()
		return err
	}

	controller := ph.NewController(e.platform.Pumps, e.platform.PH, ph.OptionsFromConfig(e.cfg))

	dir := e.store.Dir(exp)
	var mode ph.ControlMode = ph.ClosedLoop{Target: target}
	if trace, err := ph.LoadTrace(dir); err == nil && trace != nil && trace.Success {
		mode = ph.Replay{Trace: trace}
	}

	trace, err := controller.Run(ctx, mode)
	if err != nil {
		e.probeGuard.Release()
		return fault(fmt.Sprintf("实验 %d 滴定", exp), err)
	}
	if _, replayed := mode.(ph.Replay); !replayed {
		if err := trace.Save(dir); err != nil {
			e.probeGuard.Release()
			return err
		}
	}
	// 滴定失败（超时/超量）非致命，照常推进
	if !trace.Success {
		log.Printf("⚠️ 实验 %d 滴定未收敛: pH=%.2f (目标 %.2f)", exp, trace.FinalPH, trace.Target)
	}
	e.publish(events.NewEvent(events.EventTitrationDone, e.runID, gen, exp,
		fmt.Sprintf("success=%v", trace.Success)))

	// 样品瓶退回配液工位
	if err := e.rewind(ctx, e.cfg.Wheel.ProbeOffset); err != nil {
		e.probeGuard.Release()
		return err
	}

	// 探头清洗与后续步骤重叠
	e.probeGuard.ReleaseAfter(func() error {
		return e.platform.Pumps.Dispense(context.Background(), device.PumpWater, 5.0,
			device.DispenseOptions{
				InValve:  device.ValveWaterStock,
				OutValve: device.ValveWaterToPH,
				SpeedIn:  device.FastSpeed,
				SpeedOut: device.FastSpeed,
			})
	})
	return nil
}

// transferSeed 独占转移臂执行一次种子转移
// 三段转动的净效果为整数圈，转移前后逻辑位置不变
func (e *Engine) transferSeed(ctx context.Context, edge wheel.SlotEdge) error {
	if err := e.armGuard.Acquire(ctx); err != nil {
		return fault("获取种子转移臂", err)
	}
	release := e.armGuard.Release
	defer func() {
		if release != nil {
			release()
		}
	}()

	// 规划用相对当前位置的坐标：目的瓶正处于配液工位时目的坐标为0
	capacity := e.cfg.Wheel.Capacity
	pos := e.tracker.Position()
	src := ((edge.From-pos)%capacity + capacity) % capacity
	dst := ((edge.To-pos)%capacity + capacity) % capacity
	plan := wheel.PlanTransfer(src, dst, e.cfg.Wheel.TransferPosition, capacity)
	log.Printf("🔄 种子转移: 实验 %d -> %d (槽位 %d -> %d, 转动 %d/%d/%d)",
		edge.FromExp, edge.ToExp, edge.From, edge.To,
		plan.ToSource, plan.SourceToDest, plan.Restore)

	seedOpts := device.DispenseOptions{
		InValve:  device.ValveInlet,
		OutValve: device.ValveOutlet,
		SpeedIn:  device.SlowSpeed,
		SpeedOut: device.SlowSpeed,
	}

	// 把来源瓶转到转移臂下
	if err := e.turn(ctx, plan.ToSource); err != nil {
		return err
	}
	// 先抽一段死体积润洗管路
	if err := e.platform.Pumps.Dispense(ctx, device.PumpSeed, 2.0, seedOpts); err != nil {
		return fault("转移臂润洗", err)
	}
	// 两段式抽取：吸入1.0mL，排出0.5mL，余量保留在注射器内
	residual, err := e.platform.Pumps.PartialDispense(ctx, device.PumpSeed, 1.0, 0.5, seedOpts)
	if err != nil {
		return fault("种子抽取", err)
	}
	// 目的瓶就位后排出余量
	if err := e.turn(ctx, plan.SourceToDest); err != nil {
		return err
	}
	if err := e.platform.Pumps.Dispense(ctx, device.PumpSeed, residual, seedOpts); err != nil {
		return fault("种子注入", err)
	}
	// 恢复相对位置
	if err := e.turn(ctx, plan.Restore); err != nil {
		return err
	}

	e.publish(events.NewEvent(events.EventTransferDone, e.runID, 0, edge.ToExp,
		fmt.Sprintf("from=%d", edge.FromExp)))

	// 转移臂清洗与后续配液重叠
	release = nil
	e.armGuard.ReleaseAfter(func() error {
		return e.platform.Pumps.Dispense(context.Background(), device.PumpWater, 3.0,
			device.DispenseOptions{
				InValve:  device.ValveWaterStock,
				OutValve: device.ValveWaterToSeed,
				SpeedIn:  device.FastSpeed,
				SpeedOut: device.FastSpeed,
			})
	})
	return nil
}

// analyzeGeneration 分析阶段 + 末尾回绕修正
func (e *Engine) analyzeGeneration(ctx context.Context, gen int, exps []wheel.Slot) error {
	e.state = StateAnalyzing

	// 参比光谱每次运行只采集一次
	if !e.store.HasReference() {
		ref, err := e.platform.UV.AcquireSpectrum(ctx, true)
		if err != nil {
			return fault("参比光谱采集", err)
		}
		if err := e.store.WriteReference(ref); err != nil {
			return err
		}
	}

	capacity := e.cfg.Wheel.Capacity
	offset := e.cfg.Wheel.AnalysisOffset
	analysisTurns := 0

	for _, slot := range exps {
		if !slot.UVVis {
			continue
		}
		// 转到分析工位：position == (offset + slot) mod capacity
		target := (offset + slot.Index) % capacity
		for e.tracker.Position() != target {
			if err := e.turn(ctx, 1); err != nil {
				return err
			}
			analysisTurns++
		}

		spectrum, err := e.platform.UV.AcquireSpectrum(ctx, false)
		if err != nil {
			return fault(fmt.Sprintf("实验 %d 光谱采集", slot.Exp.Index), err)
		}
		if err := e.store.WriteSpectrum(slot.Exp.Index, spectrum); err != nil {
			return err
		}
		// 采样回路用水冲入废液，避免样品残留污染下一个瓶
		if err := e.cleanSampleLine(ctx); err != nil {
			return err
		}
		e.publish(events.NewEvent(events.EventAnalysisDone, e.runID, gen, slot.Exp.Index, ""))

		if err := e.turn(ctx, 1); err != nil {
			return err
		}
		analysisTurns++
	}

	// 回绕：反转退回累计转动数，净位移归零
	if analysisTurns > 0 {
		e.state = StateRewinding
		if err := e.rewind(ctx, analysisTurns); err != nil {
			return err
		}
	}
	return nil
}

// rewind 反转退回n槽后恢复正向，净位移归零
func (e *Engine) rewind(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	if err := e.reverse(ctx); err != nil {
		return err
	}
	if err := e.turn(ctx, n); err != nil {
		return err
	}
	return e.reverse(ctx)
}

// cleanSampleLine 光谱采集后用水冲洗采样回路到废液
func (e *Engine) cleanSampleLine(ctx context.Context) error {
	err := e.platform.Pumps.Dispense(ctx, device.PumpWater, 3.0,
		device.DispenseOptions{
			InValve:  device.ValveWaterStock,
			OutValve: device.ValveSampleWaste,
			SpeedIn:  device.FastSpeed,
			SpeedOut: device.FastSpeed,
		})
	if err != nil {
		return fault("采样回路清洗", err)
	}
	return nil
}

// turn 转动转轮并更新簿记
func (e *Engine) turn(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	if err := e.platform.Wheel.TurnWheel(ctx, e.cfg.Wheel.Name, n); err != nil {
		return fault("转轮转动", err)
	}
	e.tracker.Advance(n)
	return nil
}

// reverse 反转转轮方向并更新簿记
func (e *Engine) reverse(ctx context.Context) error {
	if err := e.platform.Wheel.ReverseWheel(ctx, e.cfg.Wheel.Name); err != nil {
		return fault("转轮反转", err)
	}
	e.tracker.Reverse()
	return nil
}

// dispenseOpts 按配置查找泵参数，未配置时用默认值
func (e *Engine) dispenseOpts(pump string) device.DispenseOptions {
	p := e.cfg.Pumps[pump]
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
		opts.SpeedOut = device.DefaultSpeed
	}
	return opts
}

// publish 发布事件并落库，失败只记日志
func (e *Engine) publish(event *events.Event) {
	if e.bus != nil {
		if err := e.bus.Publish(event); err != nil {
			log.Printf("发布事件失败: %v", err)
		}
	}
	if e.recorder != nil {
		if err := e.recorder.RecordEvent(event); err != nil {
			log.Printf("运行记录落库失败: %v", err)
		}
	}
}

// experimentsOf 过滤出实验槽位
func experimentsOf(slots []wheel.Slot) []wheel.Slot {
	var out []wheel.Slot
	for _, slot := range slots {
		if slot.Exp.Kind == wheel.ExpExperiment {
			out = append(out, slot)
		}
	}
	return out
}

// isReductant 判断试剂是否为还原剂（加入后需要等待还原反应完成）
func isReductant(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "reductant") || strings.Contains(n, "nabh4") ||
		strings.Contains(n, "ascorbic")
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
