package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/cli/output"
	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/engine"
	"github.com/croningp/NanoDiscovery/pkg/core/wheel"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

// compileCmd 编译实验设计
var compileCmd = &cobra.Command{
	Use:   "compile <design.yaml>",
	Short: "编译实验设计为转轮调度",
	Long:  `读取实验设计文件，展开为实验实例并排盘到转轮槽位，生成实验目录与调度文件。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载平台配置失败: %v", err)
			return err
		}

		design, err := config.LoadDesign(args[0])
		if err != nil {
			output.Error("加载实验设计失败: %v", err)
			return err
		}
		if err := design.Validate(); err != nil {
			output.Error("实验设计校验失败: %v", err)
			return err
		}

		store, err := xpfolder.NewStore(dataDir)
		if err != nil {
			output.Error("初始化实验数据目录失败: %v", err)
			return err
		}

		sched, err := engine.Compile(design, cfg, store)
		if err != nil {
			output.Error("编译失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(sched)
		}

		renderSchedule(sched)
		output.Success("编译完成: %s, 调度已写入 %s", sched.Title, store.SchedulePath())
		return nil
	},
}

// renderSchedule 以表格形式打印排盘结果
func renderSchedule(sched *wheel.Schedule) {
	table := output.NewTable([]string{"SLOT", "EXP", "GEN", "UV", "PH", "REAGENTS"})
	for _, slot := range sched.Slots {
		uv := "-"
		if slot.UVVis {
			uv = "✓"
		}
		ph := "-"
		if slot.TargetPH != nil {
			ph = fmt.Sprintf("%.2f", *slot.TargetPH)
		}
		table.AddRow([]string{
			fmt.Sprintf("%d", slot.Index),
			slotLabel(slot.Exp),
			fmt.Sprintf("%d", slot.Step),
			uv,
			ph,
			reagentLabel(slot.Reagents),
		})
	}
	table.Render()

	if len(sched.Edges) > 0 {
		fmt.Println()
		edgeTable := output.NewTable([]string{"SEED_FROM", "SEED_TO", "FROM_SLOT", "TO_SLOT"})
		for _, e := range sched.Edges {
			edgeTable.AddRow([]string{
				fmt.Sprintf("实验%d", e.FromExp),
				fmt.Sprintf("实验%d", e.ToExp),
				fmt.Sprintf("%d", e.From),
				fmt.Sprintf("%d", e.To),
			})
		}
		edgeTable.Render()
	}
}

// slotLabel 槽位内容显示标签
func slotLabel(ref wheel.ExpRef) string {
	switch ref.Kind {
	case wheel.ExpPreflush:
		return "preflush"
	case wheel.ExpFlush:
		return "flush"
	case wheel.ExpExperiment:
		return fmt.Sprintf("实验%d", ref.Index)
	default:
		return "-"
	}
}

// reagentLabel 配液序列显示标签
func reagentLabel(reagents []config.Reagent) string {
	if len(reagents) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(reagents))
	for _, r := range reagents {
		parts = append(parts, fmt.Sprintf("%s:%.2f", r.Name, r.Volume))
	}
	return strings.Join(parts, " ")
}
