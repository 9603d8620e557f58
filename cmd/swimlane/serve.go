package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/swimlane/internal/adapters/http"
	"github.com/aretw0/swimlane/internal/cli"
	"github.com/aretw0/swimlane/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Serves every board in the configured store as a JSON API, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.Listen
		if cmd.Flags().Changed("listen") {
			addr, _ = cmd.Flags().GetString("listen")
		}

		handler := httpAdapter.NewHandler(app.Boards,
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithMetricsHandler(promhttp.Handler()),
		)

		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			tui.PrintBanner(os.Stdout)
			fmt.Printf("Starting Swimlane Server on %s\n", srv.Addr)
			fmt.Printf("Store: %s\n", app.Config.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}

		case <-sigCtx.Done():
			fmt.Printf("\nStart shutdown... Signal: %v\n", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Swimlane Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default from config, :8080)")
}
