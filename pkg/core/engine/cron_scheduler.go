package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
)

// CronScheduler 定时启动调度器（对外导出）
// 夜间无人值守场景：按cron表达式到点触发下一次运行
type CronScheduler struct {
	cron    *cron.Cron
	engine  *Engine
	sched   *wheel.Schedule
	opts    RunOptions
	entryID cron.EntryID
	running bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine, sched *wheel.Schedule, opts RunOptions) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:   cron.New(cron.WithSeconds()), // 支持秒级精度
		engine: eng,
		sched:  sched,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register 注册定时触发表达式（对外导出）
func (cs *CronScheduler) Register(cronExpr string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cronExpr == "" {
		return fmt.Errorf("未设置Cron表达式")
	}

	// 验证Cron表达式（使用Parser支持秒级精度）
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("Cron表达式无效: %w", err)
	}

	entryID, err := cs.cron.AddFunc(cronExpr, cs.trigger)
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}
	cs.entryID = entryID

	log.Printf("✅ [Cron调度器] 已注册: %s, CronExpr=%s", cs.sched.Title, cronExpr)
	return nil
}

// trigger 到点触发一次运行；上一次运行未结束时跳过本次触发
func (cs *CronScheduler) trigger() {
	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		log.Printf("⚠️ [Cron调度器] 上一次运行尚未结束，跳过本次触发")
		return
	}
	cs.running = true
	cs.mu.Unlock()

	log.Printf("🕐 [Cron调度器] 触发运行: %s", cs.sched.Title)
	err := cs.engine.Run(cs.ctx, cs.sched, cs.opts)

	cs.mu.Lock()
	cs.running = false
	cs.mu.Unlock()

	if err != nil {
		log.Printf("❌ [Cron调度器] 运行失败: %v", err)
	}
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("✅ [Cron调度器] 已停止")
}
