// Package cli 提供命令行入口：启动服务、数据库迁移、查看职级规则和离线试算
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go_commission/progression"
)

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "commission",
		Short: "销售团队职级与佣金服务",
		Long: `销售团队职级与佣金服务

可用子命令:
  serve    - 启动HTTP服务
  migrate  - 执行数据库迁移
  levels   - 查看职级规则表
  evaluate - 按输入业绩离线试算看板指标`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("levels-file", "", "职级规则TOML文件（默认读取 LEVELS_FILE 环境变量）")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newLevelsCommand())
	root.AddCommand(newEvaluateCommand())
	return root
}

// Execute 执行根命令，失败时以非零状态退出
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEvaluator 按命令行参数或环境变量加载规则表，均未设置时使用默认规则
func loadEvaluator(cmd *cobra.Command, fallback string) (*progression.Evaluator, error) {
	path, _ := cmd.Flags().GetString("levels-file")
	if path == "" {
		path = fallback
	}
	if path == "" {
		return progression.NewEvaluator(nil), nil
	}

	table, err := progression.LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("加载职级规则失败 %s: %w", path, err)
	}
	return progression.NewEvaluator(table), nil
}
