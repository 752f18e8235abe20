package ph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/croningp/NanoDiscovery/pkg/device"
)

// CalibrationFileName 探头标定记录文件名
const CalibrationFileName = "calibration.json"

// Calibrator pH探头三点标定（对外导出）
// 依次把探头浸入pH4/7/10缓冲液并采集模拟信号，三点齐备后提交
type Calibrator struct {
	meter  device.PHMeter
	points map[int]float64
}

// NewCalibrator 创建标定会话（对外导出）
func NewCalibrator(meter device.PHMeter) *Calibrator {
	return &Calibrator{meter: meter, points: make(map[int]float64)}
}

// MeasureBuffer 在指定缓冲液中采集一个标定点（对外导出）
// buffer只接受4、7、10
func (c *Calibrator) MeasureBuffer(ctx context.Context, buffer int) error {
	switch buffer {
	case 4, 7, 10:
	default:
		return fmt.Errorf("不支持的标定缓冲液 pH%d（仅支持4/7/10）", buffer)
	}
	mean, stddev, err := c.meter.MeasureAnalog(ctx)
	if err != nil {
		return fmt.Errorf("pH%d 缓冲液信号采集失败: %w", buffer, err)
	}
	if stddev > 0.05 {
		return fmt.Errorf("pH%d 缓冲液信号不稳定（标准差 %.4f），请等待后重试", buffer, stddev)
	}
	c.points[buffer] = mean
	return nil
}

// Commit 三点齐备后提交标定并应用到探头（对外导出）
func (c *Calibrator) Commit() (device.Calibration, error) {
	for _, buffer := range []int{4, 7, 10} {
		if _, ok := c.points[buffer]; !ok {
			return device.Calibration{}, fmt.Errorf("缺少 pH%d 标定点，无法提交", buffer)
		}
	}
	cal := device.Calibration{
		PH4:  c.points[4],
		PH7:  c.points[7],
		PH10: c.points[10],
		Time: time.Now().Format(time.RFC3339),
	}
	c.meter.UpdateCalibration(cal)
	return cal, nil
}

// SaveCalibration 把标定记录写入目录（对外导出）
func SaveCalibration(dir string, cal device.Calibration) error {
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化标定记录失败: %w", err)
	}
	path := filepath.Join(dir, CalibrationFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入标定记录失败: %w", err)
	}
	return nil
}

// LoadCalibration 读取既有标定记录（对外导出）
// 文件不存在时返回(nil, nil)
func LoadCalibration(dir string) (*device.Calibration, error) {
	data, err := os.ReadFile(filepath.Join(dir, CalibrationFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取标定记录失败: %w", err)
	}
	var cal device.Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("解析标定记录失败: %w", err)
	}
	return &cal, nil
}
