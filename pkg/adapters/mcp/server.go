package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/session"
)

// BoardURIPrefix addresses a board resource: swimlane://board/{key}.
const BoardURIPrefix = "swimlane://board/"

// BoardResult is the structured result of every board tool.
// A denied move is a normal result with Denied set, not a tool error.
type BoardResult struct {
	Changed bool               `json:"changed" jsonschema_description:"Whether the command modified the board"`
	Denied  bool               `json:"denied,omitempty" jsonschema_description:"Set when a movement rule vetoed the move"`
	Message string             `json:"message,omitempty" jsonschema_description:"Human readable notice"`
	State   *domain.BoardState `json:"state" jsonschema_description:"The board after the command"`
}

// BoardArgs selects a board.
type BoardArgs struct {
	Board string `json:"board"`
}

// AddBlockArgs are the arguments of add_block.
type AddBlockArgs struct {
	Board string `json:"board"`
	Lane  int    `json:"lane"`
	Name  string `json:"name"`
}

// BlockArgs address one block by position, or by ID when BlockID is set.
type BlockArgs struct {
	Board   string `json:"board"`
	Lane    int    `json:"lane"`
	Block   int    `json:"block"`
	BlockID string `json:"block_id"`
}

// MoveBlockArgs are the arguments of move_block.
type MoveBlockArgs struct {
	BlockArgs
	TargetLane  int  `json:"target_lane"`
	TargetBlock *int `json:"target_block"`
}

// RenameBlockArgs are the arguments of rename_block.
type RenameBlockArgs struct {
	BlockArgs
	Name string `json:"name"`
}

// AddRuleArgs are the arguments of add_rule. Lanes are 1-based.
type AddRuleArgs struct {
	Board  string `json:"board"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Action string `json:"action"`
}

// DeleteRuleArgs are the arguments of delete_rule.
type DeleteRuleArgs struct {
	Board string `json:"board"`
	Rule  int    `json:"rule"`
}

// Server exposes boards as MCP tools and resources.
type Server struct {
	boards       *session.Manager
	defaultBoard string
	logger       *slog.Logger
	mcpServer    *server.MCPServer
}

// NewServer creates a new MCP Server instance. Tools that omit the board
// argument act on defaultBoard.
func NewServer(boards *session.Manager, defaultBoard string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		boards:       boards,
		defaultBoard: defaultBoard,
		logger:       logger,
		mcpServer:    server.NewMCPServer("swimlane-mcp", strings.TrimSpace(swimlane.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func boardOption() mcp.ToolOption {
	return mcp.WithString("board", mcp.Description("Board key (optional, defaults to the configured board)"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Get the lanes, blocks, history and rules of a board."),
		boardOption(),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleGetBoard))

	s.mcpServer.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a block to the end of a lane. Blank names are ignored."),
		boardOption(),
		mcp.WithNumber("lane", mcp.Required(), mcp.Description("0-based lane index")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Block name")),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleAddBlock))

	s.mcpServer.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block and its history."),
		boardOption(),
		mcp.WithNumber("lane", mcp.Description("0-based lane index")),
		mcp.WithNumber("block", mcp.Description("0-based block index within the lane")),
		mcp.WithString("block_id", mcp.Description("Stable block ID; overrides lane and block")),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleDeleteBlock))

	s.mcpServer.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to another lane (appended at the end) or reorder it inside its lane. Movement rules may deny the move."),
		boardOption(),
		mcp.WithNumber("lane", mcp.Description("0-based source lane index")),
		mcp.WithNumber("block", mcp.Description("0-based block index within the source lane")),
		mcp.WithString("block_id", mcp.Description("Stable block ID; overrides lane and block")),
		mcp.WithNumber("target_lane", mcp.Required(), mcp.Description("0-based target lane index")),
		mcp.WithNumber("target_block", mcp.Description("Target position for a reorder (defaults to the end)")),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleMoveBlock))

	s.mcpServer.AddTool(mcp.NewTool("rename_block",
		mcp.WithDescription("Rename a block. Recorded in the block history."),
		boardOption(),
		mcp.WithNumber("lane", mcp.Description("0-based lane index")),
		mcp.WithNumber("block", mcp.Description("0-based block index within the lane")),
		mcp.WithString("block_id", mcp.Description("Stable block ID; overrides lane and block")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New block name")),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleRenameBlock))

	s.mcpServer.AddTool(mcp.NewTool("add_rule",
		mcp.WithDescription("Add a movement rule between two lanes. The first matching rule wins."),
		boardOption(),
		mcp.WithNumber("from", mcp.Required(), mcp.Description("1-based source lane position")),
		mcp.WithNumber("to", mcp.Required(), mcp.Description("1-based target lane position")),
		mcp.WithString("action", mcp.Required(), mcp.Enum(string(domain.RuleAllow), string(domain.RuleDeny))),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleAddRule))

	s.mcpServer.AddTool(mcp.NewTool("delete_rule",
		mcp.WithDescription("Delete the rule at the given index."),
		boardOption(),
		mcp.WithNumber("rule", mcp.Required(), mcp.Description("0-based rule index")),
		mcp.WithOutputSchema[BoardResult](),
	), mcp.NewStructuredToolHandler(s.handleDeleteRule))
}

func (s *Server) key(board string) string {
	if board == "" {
		return s.defaultBoard
	}
	return board
}

// apply runs op on the board and turns a rule denial into a normal result.
func (s *Server) apply(ctx context.Context, board string, op func(context.Context, *swimlane.Board) (swimlane.Outcome, error)) (BoardResult, error) {
	var res BoardResult
	err := s.boards.Do(ctx, s.key(board), func(ctx context.Context, b *swimlane.Board) error {
		out, err := op(ctx, b)
		if denied, ok := swimlane.Denied(err); ok {
			res = BoardResult{Denied: true, Message: denied.Error(), State: b.State()}
			return nil
		}
		if err != nil {
			return err
		}
		res = BoardResult{Changed: out.Changed, State: out.State}
		return nil
	})
	if err != nil {
		return BoardResult{}, err
	}
	if res.Denied {
		s.logger.Info("MCP: move denied", "board", s.key(board), "reason", res.Message)
	}
	return res, nil
}

func (s *Server) handleGetBoard(ctx context.Context, request mcp.CallToolRequest, args BoardArgs) (BoardResult, error) {
	state, err := s.boards.View(ctx, s.key(args.Board))
	if err != nil {
		return BoardResult{}, err
	}
	return BoardResult{State: state}, nil
}

func (s *Server) handleAddBlock(ctx context.Context, request mcp.CallToolRequest, args AddBlockArgs) (BoardResult, error) {
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.AddBlock(ctx, args.Lane, args.Name)
	})
}

func (s *Server) handleDeleteBlock(ctx context.Context, request mcp.CallToolRequest, args BlockArgs) (BoardResult, error) {
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		if args.BlockID != "" {
			return b.DeleteBlockByID(ctx, args.BlockID)
		}
		return b.DeleteBlock(ctx, args.Block, args.Lane)
	})
}

func (s *Server) handleMoveBlock(ctx context.Context, request mcp.CallToolRequest, args MoveBlockArgs) (BoardResult, error) {
	target := -1
	if args.TargetBlock != nil {
		target = *args.TargetBlock
	}
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		if args.BlockID != "" {
			return b.MoveBlockByID(ctx, args.BlockID, args.TargetLane, target)
		}
		return b.MoveBlock(ctx, args.Block, args.Lane, args.TargetLane, target)
	})
}

func (s *Server) handleRenameBlock(ctx context.Context, request mcp.CallToolRequest, args RenameBlockArgs) (BoardResult, error) {
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		if args.BlockID != "" {
			return b.EditBlockNameByID(ctx, args.BlockID, args.Name)
		}
		return b.EditBlockName(ctx, args.Block, args.Lane, args.Name)
	})
}

func (s *Server) handleAddRule(ctx context.Context, request mcp.CallToolRequest, args AddRuleArgs) (BoardResult, error) {
	rule := domain.NewRule(args.From, args.To, domain.RuleAction(args.Action))
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.AddRule(ctx, rule)
	})
}

func (s *Server) handleDeleteRule(ctx context.Context, request mcp.CallToolRequest, args DeleteRuleArgs) (BoardResult, error) {
	return s.apply(ctx, args.Board, func(ctx context.Context, b *swimlane.Board) (swimlane.Outcome, error) {
		return b.DeleteRule(ctx, args.Rule)
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(BoardURIPrefix+"{key}", "Swimlane Board",
		mcp.WithTemplateDescription("Full board state as JSON"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readBoard)
}

func (s *Server) readBoard(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	key, ok := strings.CutPrefix(uri, BoardURIPrefix)
	if !ok || key == "" {
		return nil, errors.New("resource URI must look like " + BoardURIPrefix + "{key}")
	}

	state, err := s.boards.View(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	jsonBytes, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
