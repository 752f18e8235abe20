package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/croningp/NanoDiscovery/pkg/api"
	"github.com/croningp/NanoDiscovery/pkg/cli/output"
	"github.com/croningp/NanoDiscovery/pkg/config"
	"github.com/croningp/NanoDiscovery/pkg/core/engine"
	"github.com/croningp/NanoDiscovery/pkg/core/events"
	"github.com/croningp/NanoDiscovery/pkg/device"
	"github.com/croningp/NanoDiscovery/pkg/plugin"
	"github.com/croningp/NanoDiscovery/pkg/xpfolder"
)

var (
	reactionsOnly bool
	analysisOnly  bool
	simulate      bool
)

// runCmd 执行合成运行
var runCmd = &cobra.Command{
	Use:   "run <design.yaml>",
	Short: "编译并执行合成运行",
	Long: `编译实验设计后按代执行：预冲洗、配液、pH滴定、种子转移、生长等待与UV-Vis分析。

配置启用cron后不立即执行，而是到点触发；启用api后同时提供HTTP状态查询。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reactionsOnly && analysisOnly {
			return fmt.Errorf("-r 与 -a 不能同时设置")
		}

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

		if !simulate {
			// 硬件驱动经串口接入，部署机之外无法运行
			return fmt.Errorf("当前构建仅支持模拟装置，请保留 --sim")
		}
		_, platform := device.NewSimPlatform()
		output.Warning("使用模拟装置执行，不驱动真实硬件")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bus := events.NewBus()
		defer bus.Close()

		repo, err := openRepo(cfg)
		if err != nil {
			output.Error("打开运行日志数据库失败: %v", err)
			return err
		}
		defer repo.Close()

		pm := plugin.NewManager()
		if err := setupPlugins(pm, cfg); err != nil {
			output.Error("初始化通知插件失败: %v", err)
			return err
		}
		if err := pm.Watch(ctx, bus); err != nil {
			output.Error("订阅事件总线失败: %v", err)
			return err
		}

		eng := engine.New(cfg, platform, store, bus, repo)
		opts := engine.RunOptions{ReactionsOnly: reactionsOnly, AnalysisOnly: analysisOnly}

		var server *api.APIServer
		if cfg.API.Enabled {
			serverCfg := api.DefaultServerConfig()
			serverCfg.Host = cfg.API.Host
			serverCfg.Port = cfg.API.Port
			server = api.NewAPIServer(eng, sched, repo, bus, serverCfg, Version)
			go func() {
				if err := server.Start(); err != nil {
					output.Error("API服务异常退出: %v", err)
				}
			}()
			defer server.Shutdown(context.Background())
		}

		if cfg.Cron.Enabled {
			cs := engine.NewCronScheduler(eng, sched, opts)
			if err := cs.Register(cfg.Cron.Expr); err != nil {
				output.Error("注册定时调度失败: %v", err)
				return err
			}
			cs.Start()
			defer cs.Stop()

			output.Info("定时调度已启动 (%s)，Ctrl+C 退出", cfg.Cron.Expr)
			<-ctx.Done()
			return nil
		}

		if err := eng.Run(ctx, sched, opts); err != nil {
			output.Error("运行失败: %v", err)
			return err
		}
		output.Success("运行完成: %s (RunID=%s)", sched.Title, eng.RunID())
		return nil
	},
}

// setupPlugins 按配置注册内置通知插件
func setupPlugins(pm plugin.Manager, cfg *config.PlatformConfig) error {
	register := func(p plugin.Plugin) error {
		params := cfg.Plugin.Params[p.Name()]
		if err := pm.RegisterWithInit(p, params); err != nil {
			return err
		}
		return bindAlerts(pm, p.Name())
	}

	if cfg.Plugin.Builtin.EmailAlert {
		if err := register(plugin.NewEmailPlugin()); err != nil {
			return err
		}
	}
	if cfg.Plugin.Builtin.SlackAlert {
		if err := register(plugin.NewSlackPlugin()); err != nil {
			return err
		}
	}
	return nil
}

// bindAlerts 绑定无人值守运行关心的通知节点：
// 结束、失败、跳代、每代完成，以及未收敛的滴定
func bindAlerts(pm plugin.Manager, name string) error {
	for _, evt := range []events.EventType{
		events.EventRunFinished,
		events.EventRunFailed,
		events.EventGenerationSkip,
		events.EventGenerationDone,
	} {
		if err := pm.Bind(plugin.Binding{PluginName: name, Event: evt}); err != nil {
			return err
		}
	}
	return pm.Bind(plugin.Binding{
		PluginName: name,
		Event:      events.EventTitrationDone,
		Condition: func(e *events.Event) bool {
			return strings.Contains(e.Message, "success=false")
		},
	})
}

func init() {
	runCmd.Flags().BoolVarP(&reactionsOnly, "reactions-only", "r", false, "只做配液，不做分析")
	runCmd.Flags().BoolVarP(&analysisOnly, "analysis-only", "a", false, "只做分析，不做配液")
	runCmd.Flags().BoolVar(&simulate, "sim", true, "使用模拟装置")
}
