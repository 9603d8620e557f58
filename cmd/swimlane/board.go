package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage stored boards",
	Long:  `List, inspect, and remove boards in the configured store.`,
}

var boardLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		boards, err := app.Boards.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing boards: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(boards) == 0 {
			fmt.Fprintln(w, "No boards found.")
			return nil
		}

		fmt.Fprintln(w, "Boards:")
		for _, b := range boards {
			marker := "-"
			if b == app.Config.Board {
				marker = "*"
			}
			fmt.Fprintln(w, marker+" "+b)
		}
		return nil
	},
}

var boardInspectCmd = &cobra.Command{
	Use:   "inspect <board>",
	Short: "Print the stored JSON of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		state, err := app.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading board '%s': %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), state)
	},
}

var boardRmCmd = &cobra.Command{
	Use:   "rm <board>...",
	Short: "Remove one or more boards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		var errs []error
		for _, key := range args {
			if err := app.Boards.Delete(cmd.Context(), key); err != nil {
				errs = append(errs, fmt.Errorf("removing '%s': %w", key, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed board '%s'\n", key)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardLsCmd)
	boardCmd.AddCommand(boardInspectCmd)
	boardCmd.AddCommand(boardRmCmd)
}
