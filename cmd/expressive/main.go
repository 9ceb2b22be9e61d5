package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rendis/expressive/internal/logging"
)

const usage = `usage: expressive <command> [flags]

commands:
  check    evaluate a rule set against a data document
  lint     compile a rule set and list its errors and warnings
  parse    compile expressions and list the fields and constants they use
  compose  evaluate a composition template over boolean results
  serve    run the MCP tool server on stdio
  version  print the version
`

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitError
	}

	cfg := loadConfig()
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "check":
		return runCheck(cfg, rest, stdout, stderr)
	case "lint":
		return runLint(cfg, rest, stdout, stderr)
	case "parse":
		return runParse(cfg, rest, stdout, stderr)
	case "compose":
		return runCompose(rest, stdout, stderr)
	case "serve":
		return runServe(cfg, rest, stderr)
	case "version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return exitError
	}
}

// newLogger writes text records to w with rule-set correlation attributes.
func newLogger(cfg Config, w io.Writer) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	return slog.New(logging.NewCorrelationHandler(inner))
}
