package cmd

import (
	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/cli/output"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

// scheduleCmd schedule子命令
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "转轮调度查看命令",
}

// scheduleShowCmd 查看已编译的排盘结果
var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "查看数据目录中已编译的转轮调度",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := xpfolder.NewStore(dataDir)
		if err != nil {
			output.Error("打开实验数据目录失败: %v", err)
			return err
		}

		sched, err := wheel.LoadSchedule(store.SchedulePath())
		if err != nil {
			output.Error("加载转轮调度失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(sched)
		}

		output.Info("调度: %s (容量 %d, 占用 %d 个槽位)", sched.Title, sched.Capacity, len(sched.Slots))
		renderSchedule(sched)
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleShowCmd)
}
