package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/rendis/expressive/internal/rules"
	"github.com/rendis/expressive/pkg/expressive"
	"github.com/rendis/expressive/pkg/schema"
)

// runLint compiles a rule set and lists every error and warning without
// evaluating anything.
func runLint(cfg Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rulesPath := fs.String("rules", "", "rule-set file (.yaml, .yml or .json)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *rulesPath == "" {
		fmt.Fprintln(stderr, "Error: -rules is required")
		return exitError
	}

	set, err := rules.Load(*rulesPath)
	if err != nil {
		printError(stderr, err)
		return exitError
	}

	engine := expressive.New(cfg.engineOptions(expressive.WithLogger(newLogger(cfg, stderr)))...)
	if err := engine.RegisterToolchain(); err != nil {
		printError(stderr, err)
		return exitError
	}
	result := set.Validate(engine)

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			printError(stderr, err)
			return exitError
		}
	} else {
		printIssues(stdout, "error", result.Errors)
		printIssues(stdout, "warning", result.Warnings)
		fmt.Fprintf(stdout, "%d errors, %d warnings\n", len(result.Errors), len(result.Warnings))
	}

	if !result.Valid() {
		return exitFailed
	}
	return exitOK
}

func printIssues(w io.Writer, label string, issues []schema.ValidationIssue) {
	for _, issue := range issues {
		fmt.Fprintf(w, "%s: %s\n", label, issue)
	}
}
