package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane/internal/presentation/graph"
	"github.com/aretw0/swimlane/internal/presentation/tui"
	"github.com/aretw0/swimlane/pkg/domain"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the board",
	Long:  `Prints lanes, blocks and rules. Output is styled on a terminal and plain markdown when piped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, state, err := viewBoard(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if asJSON {
			return printJSON(cmd.OutOrStdout(), state)
		}
		return printBoard(cmd.OutOrStdout(), app.Config.Board, state)
	},
}

func printBoard(w io.Writer, key string, state *domain.BoardState) error {
	if err := tui.Write(w, tui.BoardMarkdown(key, state)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling board: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the movement rules as a Mermaid flowchart",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, state, err := viewBoard(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(state))
		return err
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(graphCmd)
	showCmd.Flags().Bool("json", false, "Print the raw board JSON")
}
