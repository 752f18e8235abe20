package config

import (
	"fmt"
	"time"
)

// Validate 校验平台配置的合法性（对外导出）
// 编译与执行开始前调用，阻止明显错误的硬件参数进入运行期
func (c *PlatformConfig) Validate() error {
	if c.Wheel.Capacity < 3 {
		return fmt.Errorf("转轮槽位数（%d）过小，至少需要3个槽位", c.Wheel.Capacity)
	}
	if c.Wheel.TransferPosition < 0 || c.Wheel.TransferPosition >= c.Wheel.Capacity {
		return fmt.Errorf("种子转移位置（%d）超出转轮范围 [0, %d)", c.Wheel.TransferPosition, c.Wheel.Capacity)
	}
	if c.Wheel.AnalysisOffset < 0 || c.Wheel.AnalysisOffset >= c.Wheel.Capacity {
		return fmt.Errorf("分析工位偏移（%d）超出转轮范围 [0, %d)", c.Wheel.AnalysisOffset, c.Wheel.Capacity)
	}
	if c.MaxOffspring < 1 {
		return fmt.Errorf("单瓶最大取种次数（%d）必须>=1", c.MaxOffspring)
	}
	if c.PH.Damping <= 0 || c.PH.Damping >= 1 {
		return fmt.Errorf("pH增益衰减因子（%f）必须在(0, 1)区间内", c.PH.Damping)
	}

	// duration字符串必须可解析（为空则使用默认值）
	for name, s := range map[string]string{
		"timing.growth_time":    c.Timing.GrowthTime,
		"timing.reductant_wait": c.Timing.ReductantWait,
		"timing.poll_interval":  c.Timing.PollInterval,
		"ph.settle":             c.PH.Settle,
		"ph.confirm_settle":     c.PH.ConfirmSettle,
		"ph.timeout":            c.PH.Timeout,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("配置项 %s 的时长格式非法: %w", name, err)
		}
	}

	switch c.Database.Type {
	case "sqlite", "postgres", "mysql", "":
	default:
		return fmt.Errorf("不支持的数据库类型: %s", c.Database.Type)
	}

	return nil
}
