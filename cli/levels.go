package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"go_commission/progression"
)

func newLevelsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "查看职级规则表",
		Long: `输出当前生效的职级规则表。

默认输出 TOML 格式，可直接作为 LEVELS_FILE 修改后使用。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eval, err := loadEvaluator(cmd, os.Getenv("LEVELS_FILE"))
			if err != nil {
				return err
			}
			rules := eval.Table().Rules()

			out := cmd.OutOrStdout()
			switch format {
			case "toml":
				return toml.NewEncoder(out).Encode(struct {
					Levels []progression.LevelRule `toml:"level"`
				}{rules})
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rules)
			}
			return fmt.Errorf("不支持的输出格式: %s", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "输出格式：toml 或 json")
	return cmd
}

// evaluateInput 离线试算的输入文件格式
type evaluateInput struct {
	PersonalRevenue float64                  `json:"personalRevenue"`
	GroupRevenue    float64                  `json:"groupRevenue"`
	Downline        []progression.TeamMember `json:"downline"`
}

func newEvaluateCommand() *cobra.Command {
	var (
		personal float64
		group    float64
		file     string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "按输入业绩离线试算看板指标",
		Long: `按输入业绩和下级列表计算职级、佣金和晋升进度，不连接数据库。

下级列表从 JSON 文件读取，格式:
  {"personalRevenue": 20000, "groupRevenue": 25000,
   "downline": [{"id": "2", "level": "junior", "personalRevenue": 5000}]}
命令行传入的业绩会覆盖文件中的值。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eval, err := loadEvaluator(cmd, os.Getenv("LEVELS_FILE"))
			if err != nil {
				return err
			}

			var in evaluateInput
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("读取输入文件失败: %w", err)
				}
				if err := json.Unmarshal(data, &in); err != nil {
					return fmt.Errorf("解析输入文件失败: %w", err)
				}
			}
			if cmd.Flags().Changed("personal") {
				in.PersonalRevenue = personal
			}
			if cmd.Flags().Changed("group") {
				in.GroupRevenue = group
			}

			metrics, err := eval.Evaluate(progression.MemberInputs{
				PersonalRevenue: in.PersonalRevenue,
				GroupRevenue:    in.GroupRevenue,
			}, in.Downline)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(metrics)
		},
	}
	cmd.Flags().Float64Var(&personal, "personal", 0, "个人业绩")
	cmd.Flags().Float64Var(&group, "group", 0, "团队业绩（含本人）")
	cmd.Flags().StringVar(&file, "input", "", "JSON 输入文件")
	return cmd
}
