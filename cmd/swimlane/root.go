package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/cli"
	"github.com/aretw0/swimlane/internal/config"
	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "swimlane",
	Short: "Swimlane is a kanban board engine with movement rules",
	Long: `Swimlane keeps ordered lanes of blocks, records an audit history for every block,
and enforces allow/deny rules on moves between lanes. Boards are stored in files,
in memory or in Redis, and can be served over HTTP or the Model Context Protocol.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// It is the only place the process exits, so deferred cleanup in commands always runs.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd)
}

// addGlobalFlags registers the persistent flags (available to all commands).
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default ./swimlane.yaml if present)")
	cmd.PersistentFlags().String("board", "", "Board key")
	cmd.PersistentFlags().String("store", "", "Store kind: file, memory or redis")
	cmd.PersistentFlags().String("dir", "", "Directory of the file store")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file and environment, then applies flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		return cfg, err
	}

	override := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	override("board", &cfg.Board)
	override("store", &cfg.Store.Kind)
	override("dir", &cfg.Store.Dir)
	override("log-level", &cfg.LogLevel)

	return cfg, cfg.Validate()
}

// openApp builds the application from config. Metrics are registered on reg when non-nil.
func openApp(cmd *cobra.Command, reg prometheus.Registerer) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app, err := cli.Open(cfg, logging.New(level), cli.Options{Registerer: reg})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return app, nil
}

// viewBoard returns a snapshot of the configured board.
func viewBoard(cmd *cobra.Command) (*cli.App, *domain.BoardState, error) {
	app, err := openApp(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	state, err := app.Boards.View(cmd.Context(), app.Config.Board)
	if err != nil {
		_ = app.Close()
		return nil, nil, fmt.Errorf("loading board: %w", err)
	}
	return app, state, nil
}

// withBoard opens the configured board, runs fn and prints the board afterwards.
// A denied move prints a notice and is not treated as a failure.
func withBoard(cmd *cobra.Command, fn func(context.Context, *swimlane.Board) (swimlane.Outcome, error)) error {
	app, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var out swimlane.Outcome
	err = app.Board(cmd.Context(), func(ctx context.Context, b *swimlane.Board) error {
		var err error
		out, err = fn(ctx, b)
		return err
	})
	w := cmd.OutOrStdout()
	if notice := cli.Notice(err); notice != "" {
		fmt.Fprintln(w, notice)
		return nil
	}
	if err != nil {
		return err
	}
	if !out.Changed {
		fmt.Fprintln(w, "Nothing changed.")
		return nil
	}
	return printBoard(w, app.Config.Board, out.State)
}

// indexes parses positional arguments as integers, naming the first bad one.
func indexes(args []string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid %s index %q", name, args[i])
		}
		out[i] = n
	}
	return out, nil
}
