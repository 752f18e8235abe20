// Package cmd 实现nanodiscovery命令行工具的全部子命令
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/config"
)

var (
	// 全局参数
	configPath string
	dataDir    string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "nanodiscovery",
	Short: "NanoDiscovery - 纳米颗粒多代合成平台命令行工具",
	Long: `NanoDiscovery 驱动24槽位转轮装置执行多代纳米颗粒合成实验。

支持的功能：
  - 编译实验设计（依赖图 -> 实例展开 -> 转轮排盘）
  - 执行合成运行（配液、pH滴定、种子转移、UV-Vis分析）
  - 查看转轮调度与历史运行记录
  - 启动HTTP状态查询服务

使用示例：
  # 编译实验设计
  nanodiscovery compile designs/seed_growth.yaml

  # 执行完整运行
  nanodiscovery run designs/seed_growth.yaml

  # 只做配液，不做分析
  nanodiscovery run designs/seed_growth.yaml -r

  # 查看排盘结果
  nanodiscovery schedule show`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/platform.yaml", "平台配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "./data", "实验数据根目录")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig 加载并校验平台配置
func loadConfig() (*config.PlatformConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
