package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/cli/output"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// runsCmd runs子命令
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "历史运行记录查询命令",
}

// runsListCmd 列出历史运行
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部历史运行",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载平台配置失败: %v", err)
			return err
		}
		repo, err := openRepo(cfg)
		if err != nil {
			output.Error("打开运行日志数据库失败: %v", err)
			return err
		}
		defer repo.Close()

		runs, err := repo.Runs(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(runs)
		}
		if len(runs) == 0 {
			output.Info("暂无运行记录")
			return nil
		}

		table := output.NewTable([]string{"RUN_ID", "EVENTS", "STARTED", "LAST_EVENT"})
		for _, r := range runs {
			table.AddRow([]string{
				r.RunID,
				fmt.Sprintf("%d", r.EventCount),
				r.FirstTime.Format("2006-01-02 15:04:05"),
				r.LastTime.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		fmt.Printf("\n总计: %d 次运行\n", len(runs))
		return nil
	},
}

// runsEventsCmd 查看一次运行的事件明细
var runsEventsCmd = &cobra.Command{
	Use:   "events <run-id>",
	Short: "查看一次运行的事件明细",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载平台配置失败: %v", err)
			return err
		}
		repo, err := openRepo(cfg)
		if err != nil {
			output.Error("打开运行日志数据库失败: %v", err)
			return err
		}
		defer repo.Close()

		evts, err := repo.ListByRun(cmd.Context(), args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if len(evts) == 0 {
			output.Info("运行 %s 无事件记录", args[0])
			return nil
		}

		if outputJSON {
			return output.PrintJSON(evts)
		}

		table := output.NewTable([]string{"TIME", "TYPE", "GEN", "EXP", "MESSAGE"})
		for _, e := range evts {
			exp := "-"
			if e.Experiment >= 0 {
				exp = fmt.Sprintf("%d", e.Experiment)
			}
			table.AddRow([]string{
				e.Time.Format("15:04:05"),
				formatEventType(e.Type),
				fmt.Sprintf("%d", e.Generation),
				exp,
				e.Message,
			})
		}
		table.Render()
		return nil
	},
}

// formatEventType 事件类型显示标签
func formatEventType(t events.EventType) string {
	switch t {
	case events.EventRunStarted:
		return "🚀 " + string(t)
	case events.EventRunFinished:
		return "✅ " + string(t)
	case events.EventRunFailed:
		return "❌ " + string(t)
	case events.EventGenerationSkip:
		return "⚠️  " + string(t)
	default:
		return string(t)
	}
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsEventsCmd)
}
