package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"go_commission/config"
	"go_commission/database"
	"go_commission/diagnostics"
	"go_commission/handlers"
	"go_commission/logger"
	"go_commission/routes"
	"go_commission/services"
	"go_commission/store"
	"go_commission/utils"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		Long: `启动HTTP服务。

启动流程:
1. 加载配置并连接数据库
2. 执行数据库迁移
3. 加载职级规则，组装服务与处理器
4. 监听端口，收到终止信号后优雅关闭`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithWriter("commission", cfg.Env, cmd.OutOrStdout())
	defer log.Sync()

	db, err := database.Open(cfg, log.Named("database"))
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, log.Named("database")); err != nil {
		return err
	}

	eval, err := loadEvaluator(cmd, cfg.LevelsFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := diagnostics.NewMetrics(reg)

	throttled := diagnostics.NewThrottledLogger(log.Named("diagnostics"), metrics, cfg.Throttle)
	throttled.Start(ctx)
	defer throttled.Stop()

	limiter := utils.DefaultLoginLimiter()
	go limiter.Run(ctx)

	jwt := utils.NewJWTManager(cfg.JWTSecret)

	teamStore := store.New(db)
	dashboard := services.NewDashboardService(teamStore, eval, metrics, throttled)
	team := services.NewTeamService(teamStore, log.Named("team"))

	app := config.SetupApp(config.AppOptions{
		Config:   cfg,
		Monitor:  diagnostics.NewErrorMonitor(throttled, metrics),
		Gatherer: reg,
		Routes: routes.Dependencies{
			DB:        db,
			JWT:       jwt,
			Log:       log.Named("auth"),
			Auth:      handlers.NewAuthHandler(db, jwt, limiter, log.Named("auth")),
			Members:   handlers.NewMemberHandler(db, log.Named("members")),
			Contracts: handlers.NewContractHandler(db, log.Named("contracts")),
			Dashboard: handlers.NewDashboardHandler(dashboard, log.Named("dashboard")),
			Team:      handlers.NewTeamHandler(team, log.Named("team")),
			Levels:    handlers.NewLevelHandler(eval, log.Named("levels")),
		},
	})

	return config.StartServer(ctx, app, cfg.Port, log)
}
