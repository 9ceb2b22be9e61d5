// Package mcp exposes the expression engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Logger *slog.Logger
	// Conditional enables "cond ? a : b" in compiled expressions.
	Conditional bool
	Version     string
}

// Server wraps an MCP server with the expression tool handlers.
type Server struct {
	logger      *slog.Logger
	conditional bool
	mcpServer   *server.MCPServer
}

// NewServer creates a Server with its 3 tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		logger:      logger,
		conditional: deps.Conditional,
	}

	mcpSrv := server.NewMCPServer(
		"expressive",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Expressive compiles boolean validation expressions such as \"Age > 24 && GoAbroad == true\". Use expressive.compile to check an expression against declared fields, expressive.evaluate to run it on a data object, and expressive.compose to combine rule results with a template like \"{0} && !{1}\"."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: compileTool(), Handler: s.handleCompile},
		{Tool: evaluateTool(), Handler: s.handleEvaluate},
		{Tool: composeTool(), Handler: s.handleCompose},
	}
}

// --- Tool definitions ---

func contextOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("expression", mcp.Required(), mcp.Description("Boolean expression, e.g. Age > 24 && Country == 'CL'")),
		mcp.WithObject("fields", mcp.Description("Property path to type spelling: int, *int, float, string, bool, time, duration, uuid, enum:<Name>")),
		mcp.WithObject("enums", mcp.Description("Qualified enum name to members (name -> integer value)")),
		mcp.WithObject("constants", mcp.Description("Qualified constant name to value")),
	}
}

func compileTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Compile an expression and report the fields and constants it uses"),
	}, contextOptions()...)
	return mcp.NewTool("expressive.compile", opts...)
}

func evaluateTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Compile an expression and evaluate it against a data object"),
	}, contextOptions()...)
	opts = append(opts, mcp.WithObject("data", mcp.Required(), mcp.Description("Context object the expression reads")))
	return mcp.NewTool("expressive.evaluate", opts...)
}

func composeTool() mcp.Tool {
	return mcp.NewTool("expressive.compose",
		mcp.WithDescription("Combine boolean results with a composition template"),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template such as {0} && ({1} || !{2})")),
		mcp.WithArray("results", mcp.Required(),
			mcp.Items(map[string]any{"type": "boolean"}),
			mcp.Description("Results substituted for {0}, {1}, ..."),
		),
	)
}
