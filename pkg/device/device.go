package device

import "context"

// 常用阀门名称（对应三通阀/六通阀的端口标签）
const (
	ValveInlet      = "inlet"
	ValveOutlet     = "outlet"
	ValveExtra      = "extra"
	ValveWaterStock = "water_stock"
	ValveWaterToPH  = "water_to_ph"
	ValveWaterToSeed = "water_to_seed"
	ValveUVIR       = "uv_ir"
	ValveSampleIn   = "sample_inlet"
	ValveSampleWaste = "sample_waste"
)

// 固定职责的泵名称
const (
	PumpSeed  = "seed"  // 种子转移臂上的注射泵
	PumpWater = "water" // 清洗水路泵
	PumpKCl   = "kcl"   // 探头存放液（KCl）补液泵
)

// 默认泵速（步/秒）
const (
	SlowSpeed    = 3000
	DefaultSpeed = 9000
	FastSpeed    = 21000
)

// DispenseOptions 单次泵送的阀门与速度参数（对外导出）
type DispenseOptions struct {
	InValve  string
	OutValve string
	SpeedIn  int
	SpeedOut int
}

// PumpController 注射泵控制接口（对外导出）
// 底层驱动（Tricont固件协议）不在本仓库范围内
type PumpController interface {
	// Dispense 完整泵送：吸入volume后全部排出
	Dispense(ctx context.Context, pump string, volume float64, opts DispenseOptions) error
	// PartialDispense 部分泵送：吸入volumeIn，排出volumeOut，返回注射器内剩余体积
	PartialDispense(ctx context.Context, pump string, volumeIn, volumeOut float64, opts DispenseOptions) (float64, error)
}

// WheelDriver 转轮与模块电机控制接口（对外导出）
type WheelDriver interface {
	// TurnWheel 转动转轮n个槽位
	TurnWheel(ctx context.Context, wheel string, n int) error
	// ReverseWheel 反转转轮方向
	ReverseWheel(ctx context.Context, wheel string) error
	// MoveMotorToPosition 移动模块电机到绝对位置
	MoveMotorToPosition(ctx context.Context, motor string, position int) error
	// HomeMotor 电机回零
	HomeMotor(ctx context.Context, motor string) error
}

// Calibration pH探头三点标定数据（对外导出）
type Calibration struct {
	PH4  float64 `json:"pH4"`
	PH7  float64 `json:"pH7"`
	PH10 float64 `json:"pH10"`
	Time string  `json:"time"`
}

// PHMeter pH测量接口（对外导出）
type PHMeter interface {
	// MeasurePH 测量当前pH值
	MeasurePH(ctx context.Context) (float64, error)
	// MeasureAnalog 测量原始模拟信号（用于标定），返回均值与标准差
	MeasureAnalog(ctx context.Context) (float64, float64, error)
	// UpdateCalibration 应用新的标定数据
	UpdateCalibration(cal Calibration)
}

// Spectrum 一次光谱采集结果（对外导出）
// 信号处理不在本仓库范围内，这里只承载原始数据
type Spectrum struct {
	Wavelengths []float64 `json:"wavelengths"`
	Intensities []float64 `json:"intensities"`
	Reference   bool      `json:"reference"`
}

// Spectrometer 光谱仪采集接口（对外导出）
type Spectrometer interface {
	// AcquireSpectrum 采集一条光谱；reference为true时采集参比
	AcquireSpectrum(ctx context.Context, reference bool) (*Spectrum, error)
}

// StirController 搅拌控制接口（对外导出）
type StirController interface {
	// SetStirRate 设置指定引脚的搅拌速度（0-255，0为停止）
	SetStirRate(ctx context.Context, pin string, value int) error
}

// Platform 平台全部外部设备的聚合（对外导出）
// 由调用方注入真实驱动或模拟器，执行器不关心实现
type Platform struct {
	Pumps PumpController
	Wheel WheelDriver
	PH    PHMeter
	UV    Spectrometer
	Stir  StirController
}
