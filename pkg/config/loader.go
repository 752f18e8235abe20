package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load 加载平台配置文件（对外导出）
// 文件不存在时返回带默认值的配置，便于开发模式下直接启动
func Load(path string) (*PlatformConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), nil
	}

	var cfg PlatformConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析平台配置失败: %w", err)
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default 返回默认平台配置（对外导出）
func Default() *PlatformConfig {
	cfg := &PlatformConfig{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 填充未设置的默认值
func applyDefaults(cfg *PlatformConfig) {
	if cfg.Wheel.Name == "" {
		cfg.Wheel.Name = "wheel"
	}
	if cfg.Wheel.Capacity <= 0 {
		cfg.Wheel.Capacity = 24
	}
	if cfg.Wheel.TransferPosition == 0 {
		cfg.Wheel.TransferPosition = 14
	}
	if cfg.Wheel.AnalysisOffset == 0 {
		cfg.Wheel.AnalysisOffset = 7
	}
	if cfg.Wheel.ProbeOffset == 0 {
		cfg.Wheel.ProbeOffset = 4
	}
	if cfg.MaxOffspring <= 0 {
		cfg.MaxOffspring = 5
	}
	if cfg.PreflushVolume <= 0 {
		cfg.PreflushVolume = 2.0
	}
	if cfg.FlushPump == "" {
		cfg.FlushPump = "surfactant"
	}
	if cfg.FlushVolume <= 0 {
		cfg.FlushVolume = 2.0
	}
	if cfg.PH.AcidPump == "" {
		cfg.PH.AcidPump = "ph_acid"
	}
	if cfg.PH.BasePump == "" {
		cfg.PH.BasePump = "ph_base"
	}
	if cfg.PH.Coeff <= 0 {
		cfg.PH.Coeff = 2.5
	}
	if cfg.PH.UnitVolumeML <= 0 {
		cfg.PH.UnitVolumeML = 0.010
	}
	if cfg.PH.Tolerance <= 0 {
		cfg.PH.Tolerance = 0.2
	}
	if cfg.PH.MaxVolumeML <= 0 {
		cfg.PH.MaxVolumeML = 3.0
	}
	if cfg.PH.Damping <= 0 {
		cfg.PH.Damping = 0.6
	}
	if cfg.Stirrer.RingPin == "" {
		cfg.Stirrer.RingPin = "ring"
	}
	if cfg.Stirrer.WashFanPin == "" {
		cfg.Stirrer.WashFanPin = "wash_fan"
	}
	if cfg.Stirrer.Speed <= 0 {
		cfg.Stirrer.Speed = 35
	}
	if cfg.Cleaning.PurgeVolumeML <= 0 {
		cfg.Cleaning.PurgeVolumeML = 5.0
	}
	if cfg.Cleaning.KClVolumeML <= 0 {
		cfg.Cleaning.KClVolumeML = 2.0
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./nanodiscovery.db"
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
}
