package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rendis/expressive/internal/document"
	"github.com/rendis/expressive/internal/reference"
	"github.com/rendis/expressive/internal/rules"
	"github.com/rendis/expressive/pkg/expressive"
	"github.com/rendis/expressive/pkg/schema"
)

func runCheck(cfg Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rulesPath := fs.String("rules", "", "rule-set file (.yaml, .yml or .json)")
	dataPath := fs.String("data", "", "data document (.yaml, .yml or .json)")
	selectQuery := fs.String("select", "", "jq query picking the context objects (overrides the rule set)")
	refName := fs.String("reference", cfg.Reference, "cross-check outcomes with a reference engine: expr or cel")
	asJSON := fs.Bool("json", false, "print reports as JSON")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *rulesPath == "" || *dataPath == "" {
		fmt.Fprintln(stderr, "Error: -rules and -data are required")
		return exitError
	}

	logger := newLogger(cfg, stderr)

	set, err := rules.Load(*rulesPath)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	if *selectQuery != "" {
		set.Select = *selectQuery
	}

	opts := []rules.CompileOption{rules.WithLogger(logger)}
	if *refName != "" {
		ref, ok := reference.New(*refName)
		if !ok {
			fmt.Fprintf(stderr, "Error: unknown reference engine %q\n", *refName)
			return exitError
		}
		opts = append(opts, rules.WithReference(ref))
	}

	engine := expressive.New(cfg.engineOptions(expressive.WithLogger(logger))...)
	if err := engine.RegisterToolchain(); err != nil {
		printError(stderr, err)
		return exitError
	}
	compiled, err := set.Compile(engine, opts...)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	printIssues(stderr, "warning", compiled.Warnings())

	doc, err := document.Load(*dataPath)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	reports, err := compiled.Evaluate(context.Background(), doc)
	if err != nil {
		printError(stderr, err)
		return exitError
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			printError(stderr, err)
			return exitError
		}
	} else {
		printReports(stdout, set.Name, reports)
	}

	for _, r := range reports {
		if !r.Passed {
			return exitFailed
		}
	}
	return exitOK
}

func printReports(w io.Writer, name string, reports []rules.Report) {
	failed := 0
	for _, r := range reports {
		status := "passed"
		if !r.Passed {
			status = "failed"
			failed++
		}
		fmt.Fprintf(w, "%s: object %d %s\n", name, r.Object, status)
		for _, o := range r.Outcomes {
			switch {
			case o.Error != "":
				fmt.Fprintf(w, "  %s: error: %s\n", o.Rule, o.Error)
			case !o.Passed && o.Message != "":
				fmt.Fprintf(w, "  %s: %s\n", o.Rule, o.Message)
			case !o.Passed:
				fmt.Fprintf(w, "  %s: failed\n", o.Rule)
			}
			if o.Divergence != nil {
				fmt.Fprintf(w, "  %s: divergence: %s\n", o.Rule, o.Divergence)
			}
		}
	}
	fmt.Fprintf(w, "%d objects, %d failed\n", len(reports), failed)
}

// printError writes err, one line per joined error, with a caret excerpt
// for errors that carry a source location.
func printError(w io.Writer, err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		fmt.Fprintf(w, "Error: %v\n", e)
		var exprErr *schema.ExprError
		if errors.As(e, &exprErr) && !exprErr.Location.IsZero() {
			for _, line := range strings.Split(exprErr.Excerpt(), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
}
