package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/cli/output"
	"github.com/croningp/NanoDiscovery/pkg/core/ph"
	"github.com/croningp/NanoDiscovery/pkg/device"
)

// calibrateCmd pH探头三点标定
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "执行pH探头三点标定",
	Long:  `依次把探头浸入pH4/7/10缓冲液采集模拟信号，三点齐备后写入标定记录，后续运行自动应用。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !simulate {
			return fmt.Errorf("当前构建仅支持模拟装置，请保留 --sim")
		}
		_, platform := device.NewSimPlatform()

		calibrator := ph.NewCalibrator(platform.PH)
		reader := bufio.NewReader(os.Stdin)
		for _, buffer := range []int{4, 7, 10} {
			fmt.Printf("将探头放入 pH%d 缓冲液后按回车继续...", buffer)
			if _, err := reader.ReadString('\n'); err != nil {
				return fmt.Errorf("读取输入失败: %w", err)
			}
			if err := calibrator.MeasureBuffer(cmd.Context(), buffer); err != nil {
				output.Error("标定点采集失败: %v", err)
				return err
			}
			output.Info("pH%d 标定点已采集", buffer)
		}

		cal, err := calibrator.Commit()
		if err != nil {
			output.Error("提交标定失败: %v", err)
			return err
		}
		if err := ph.SaveCalibration(dataDir, cal); err != nil {
			output.Error("写入标定记录失败: %v", err)
			return err
		}
		output.Success("标定完成: pH4=%.3f pH7=%.3f pH10=%.3f", cal.PH4, cal.PH7, cal.PH10)
		return nil
	},
}

func init() {
	calibrateCmd.Flags().BoolVar(&simulate, "sim", true, "使用模拟装置")
	rootCmd.AddCommand(calibrateCmd)
}
