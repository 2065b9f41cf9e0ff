package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go_commission/config"
	"go_commission/database"
	"go_commission/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter("commission", cfg.Env, cmd.ErrOrStderr())
			defer log.Sync()

			db, err := database.Open(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "数据库迁移完成")
			return nil
		},
	}
}
