package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/presentation/tui"
	"github.com/aretw0/swimlane/pkg/domain"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage movement rules",
	Long: `Rules match moves between lanes by their 1-based positions. The first matching
rule decides; moves no rule matches are allowed.`,
}

var ruleAddCmd = &cobra.Command{
	Use:       "add <from> <to> <allow|deny>",
	Short:     "Append a rule",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{string(domain.RuleAllow), string(domain.RuleDeny)},
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "from lane", "to lane")
		if err != nil {
			return err
		}
		rule := domain.NewRule(idx[0], idx[1], domain.RuleAction(args[2]))
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.AddRule(ctx, rule)
		})
	},
}

var ruleLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List rules in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, state, err := viewBoard(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return tui.Write(cmd.OutOrStdout(), tui.RulesMarkdown(state))
	},
}

var ruleRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Delete the rule at index (0-based)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "rule")
		if err != nil {
			return err
		}
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.DeleteRule(ctx, idx[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(ruleCmd)
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleLsCmd)
	ruleCmd.AddCommand(ruleRmCmd)
}
