package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rendis/expressive/pkg/mcp"
)

// runServe runs the MCP server on stdin/stdout until either closes or a
// termination signal arrives. Logs go to stderr.
func runServe(cfg Config, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	logger := newLogger(cfg, stderr)
	srv := mcp.NewServer(mcp.ServerDeps{
		Logger:      logger,
		Conditional: cfg.Conditional,
		Version:     version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving MCP tools on stdio")
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
