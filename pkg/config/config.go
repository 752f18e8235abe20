package config

import "time"

// PlatformConfig 平台核心配置（对外导出）
// 描述转轮硬件、泵阀映射、时序参数与pH控制参数
type PlatformConfig struct {
	// Wheel 转轮硬件配置
	Wheel struct {
		Name             string `yaml:"name"`              // 转轮电机名称
		Capacity         int    `yaml:"capacity"`          // 转轮槽位总数（默认24）
		TransferPosition int    `yaml:"transfer_position"` // 种子转移臂所在槽位
		AnalysisOffset   int    `yaml:"analysis_offset"`   // 分析工位相对配液工位的固定偏移
		ProbeOffset      int    `yaml:"probe_offset"`      // pH探头工位相对配液工位的固定偏移
	} `yaml:"wheel"`

	// MaxOffspring 单个样品瓶最多可供下游取种的次数
	MaxOffspring int `yaml:"max_offspring"`

	// Pumps 泵名称 -> 阀门/速度配置
	Pumps map[string]PumpConfig `yaml:"pumps"`

	// PreflushPumps 每代开始前需要预冲洗的泵列表（按顺序）
	PreflushPumps []string `yaml:"preflush_pumps"`

	// PreflushVolume 预冲洗体积（mL）
	PreflushVolume float64 `yaml:"preflush_volume"`

	// FlushPump 每代配液结束后向冲洗瓶排液的泵名称
	FlushPump string `yaml:"flush_pump"`

	// FlushVolume 冲洗瓶排液体积（mL）
	FlushVolume float64 `yaml:"flush_volume"`

	// Timing 时序配置（均为Go duration字符串，如 "1h"、"10s"）
	Timing struct {
		GrowthTime    string `yaml:"growth_time"`    // 配液完成后的生长等待时间
		ReductantWait string `yaml:"reductant_wait"` // 还原剂加入后的等待时间
		PollInterval  string `yaml:"poll_interval"`  // 资源就绪轮询间隔
	} `yaml:"timing"`

	// PH pH闭环控制配置
	PH struct {
		AcidPump      string  `yaml:"acid_pump"`      // 酸泵名称
		BasePump      string  `yaml:"base_pump"`      // 碱泵名称
		Coeff         float64 `yaml:"coeff"`          // 初始增益系数（默认2.5）
		UnitVolumeML  float64 `yaml:"unit_volume_ml"` // 单位加液体积（mL，默认0.010）
		Tolerance     float64 `yaml:"tolerance"`      // 允许偏差（默认0.2）
		MaxVolumeML   float64 `yaml:"max_volume_ml"`  // 总加液体积上限（mL，默认3.0）
		Damping       float64 `yaml:"damping"`        // 过冲时的增益衰减因子（默认0.6）
		Settle        string  `yaml:"settle"`         // 每次加液后的稳定时间（默认10s）
		ConfirmSettle string  `yaml:"confirm_settle"` // 进入容差后的二次确认时间（默认15s）
		Timeout       string  `yaml:"timeout"`        // 单次滴定超时（默认3m）
	} `yaml:"ph"`

	// Stirrer 搅拌配置
	Stirrer struct {
		RingPin    string `yaml:"ring_pin"`    // 反应环搅拌引脚
		WashFanPin string `yaml:"wash_fan_pin"` // 清洗风扇引脚
		Speed      int    `yaml:"speed"`       // 默认搅拌速度（0-255）
	} `yaml:"stirrer"`

	// Cleaning 清洗配置
	Cleaning struct {
		AcidPurge     bool    `yaml:"acid_purge"`      // 运行结束后酸洗管路
		PurgeVolumeML float64 `yaml:"purge_volume_ml"` // 酸洗体积（mL）
		KClVolumeML   float64 `yaml:"kcl_volume_ml"`   // 探头存放KCl补液体积（mL）
	} `yaml:"cleaning"`

	// Database 运行日志数据库配置
	Database struct {
		Type     string `yaml:"type"` // sqlite / postgres / mysql
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
	} `yaml:"database"`

	// API 状态查询HTTP服务配置
	API struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"api"`

	// Cron 定时启动配置
	Cron struct {
		Enabled bool   `yaml:"enabled"`
		Expr    string `yaml:"expr"` // cron表达式，到点启动下一代
	} `yaml:"cron"`

	// Plugin 通知插件配置
	Plugin struct {
		Builtin struct {
			EmailAlert bool `yaml:"email_alert"`
			SlackAlert bool `yaml:"slack_alert"`
		} `yaml:"builtin"`
		Params map[string]map[string]string `yaml:"params"` // 插件名 -> 初始化参数
	} `yaml:"plugin"`
}

// PumpConfig 单个泵的阀门与速度配置（对外导出）
type PumpConfig struct {
	InValve  string `yaml:"in_valve"`
	OutValve string `yaml:"out_valve"`
	SpeedIn  int    `yaml:"speed_in"`
	SpeedOut int    `yaml:"speed_out"`
}

// 时序默认值
const (
	defaultGrowthTime    = time.Hour
	defaultReductantWait = 10 * time.Second
	defaultPollInterval  = 100 * time.Millisecond
	defaultPHSettle      = 10 * time.Second
	defaultPHConfirm     = 15 * time.Second
	defaultPHTimeout     = 3 * time.Minute
)

// parseDuration 解析duration字符串，失败或为空时返回默认值
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GrowthTime 获取生长等待时间（对外导出）
func (c *PlatformConfig) GrowthTime() time.Duration {
	return parseDuration(c.Timing.GrowthTime, defaultGrowthTime)
}

// ReductantWait 获取还原剂等待时间（对外导出）
func (c *PlatformConfig) ReductantWait() time.Duration {
	return parseDuration(c.Timing.ReductantWait, defaultReductantWait)
}

// PollInterval 获取资源轮询间隔（对外导出）
func (c *PlatformConfig) PollInterval() time.Duration {
	return parseDuration(c.Timing.PollInterval, defaultPollInterval)
}

// PHSettle 获取pH稳定时间（对外导出）
func (c *PlatformConfig) PHSettle() time.Duration {
	return parseDuration(c.PH.Settle, defaultPHSettle)
}

// PHConfirmSettle 获取pH二次确认时间（对外导出）
func (c *PlatformConfig) PHConfirmSettle() time.Duration {
	return parseDuration(c.PH.ConfirmSettle, defaultPHConfirm)
}

// PHTimeout 获取pH滴定超时（对外导出）
func (c *PlatformConfig) PHTimeout() time.Duration {
	return parseDuration(c.PH.Timeout, defaultPHTimeout)
}
