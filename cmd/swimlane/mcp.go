package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/swimlane/internal/cli"
	"github.com/aretw0/swimlane/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes boards as MCP tools and resources so AI agents can read and edit them.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		app, err := openApp(cmd, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Boards, app.Config.Board, app.Logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			app.Logger.Info("Starting Swimlane MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
		case "sse":
			app.Logger.Info("Starting Swimlane MCP Server (SSE)", "port", port)

			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
			app.Logger.Info("MCP Server stopped gracefully")
		default:
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
