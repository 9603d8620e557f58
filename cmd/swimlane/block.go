package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/presentation/tui"
	"github.com/aretw0/swimlane/pkg/domain"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Add, remove, move and rename blocks",
	Long:  `Lane and block positions are 0-based, as shown by 'swimlane show'.`,
}

var blockAddCmd = &cobra.Command{
	Use:   "add <lane> <name>...",
	Short: "Append a block to a lane",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "lane")
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.AddBlock(ctx, idx[0], name)
		})
	},
}

var blockRmCmd = &cobra.Command{
	Use:   "rm <lane> <block>",
	Short: "Delete a block and its history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "lane", "block")
		if err != nil {
			return err
		}
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.DeleteBlock(ctx, idx[1], idx[0])
		})
	},
}

var blockMvCmd = &cobra.Command{
	Use:   "mv <lane> <block> <target-lane> [target-position]",
	Short: "Move a block to another lane or reorder it within its lane",
	Long: `Moves to another lane append the block at the end and are checked against the rules.
Within the same lane, the block is placed at target-position (default: the end).`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := []string{"lane", "block", "target lane", "target position"}
		idx, err := indexes(args, names[:len(args)]...)
		if err != nil {
			return err
		}
		position := -1
		if len(idx) == 4 {
			position = idx[3]
		}
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.MoveBlock(ctx, idx[1], idx[0], idx[2], position)
		})
	},
}

var blockRenameCmd = &cobra.Command{
	Use:   "rename <lane> <block> <name>...",
	Short: "Rename a block",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "lane", "block")
		if err != nil {
			return err
		}
		name := strings.Join(args[2:], " ")
		return withBoard(cmd, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
			return b.EditBlockName(ctx, idx[1], idx[0], name)
		})
	},
}

var blockHistoryCmd = &cobra.Command{
	Use:   "history <lane> <block>",
	Short: "Show the audit trail of a block",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := indexes(args, "lane", "block")
		if err != nil {
			return err
		}
		lane, block := idx[0], idx[1]

		app, state, err := viewBoard(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if lane < 0 || lane >= len(state.Lanes) {
			return &domain.IndexError{Kind: domain.ErrInvalidLane, Index: lane, Len: len(state.Lanes)}
		}
		items := state.Lanes[lane].Items
		if block < 0 || block >= len(items) {
			return &domain.IndexError{Kind: domain.ErrInvalidBlock, Index: block, Len: len(items)}
		}
		return tui.Write(cmd.OutOrStdout(), tui.HistoryMarkdown(items[block]))
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.AddCommand(blockAddCmd)
	blockCmd.AddCommand(blockRmCmd)
	blockCmd.AddCommand(blockMvCmd)
	blockCmd.AddCommand(blockRenameCmd)
	blockCmd.AddCommand(blockHistoryCmd)
}
