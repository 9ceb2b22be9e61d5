package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/rendis/expressive/internal/document"
	"github.com/rendis/expressive/internal/rules"
	"github.com/rendis/expressive/pkg/expressive"
)

// runParse compiles every expression given by -expr or as an argument and
// prints the fields and constants each one uses.
func runParse(cfg Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fieldsPath := fs.String("fields", "", "context file declaring fields, enums and constants")
	exprText := fs.String("expr", "", "expression to compile")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	texts := fs.Args()
	if *exprText != "" {
		texts = append([]string{*exprText}, texts...)
	}
	if len(texts) == 0 {
		fmt.Fprintln(stderr, "Error: no expression given")
		return exitError
	}

	decl := &rules.Context{}
	if *fieldsPath != "" {
		var err error
		if decl, err = loadContext(*fieldsPath); err != nil {
			printError(stderr, err)
			return exitError
		}
	}
	sch, err := decl.Schema()
	if err != nil {
		printError(stderr, err)
		return exitError
	}

	logger := newLogger(cfg, stderr)
	engine := expressive.New(cfg.engineOptions(expressive.WithLogger(logger))...)
	if err := engine.RegisterToolchain(); err != nil {
		printError(stderr, err)
		return exitError
	}
	cache, err := expressive.NewCache(engine, cfg.CacheSize)
	if err != nil {
		printError(stderr, err)
		return exitError
	}

	code := exitOK
	for _, text := range texts {
		pred, err := cache.GetOrCompile(sch, text)
		if err != nil {
			printError(stderr, err)
			code = exitFailed
			continue
		}
		fmt.Fprintln(stdout, text)
		fields := pred.Fields()
		for _, path := range slices.Sorted(maps.Keys(fields)) {
			fmt.Fprintf(stdout, "  field %s %s\n", path, fields[path])
		}
		constants := pred.Constants()
		for _, name := range slices.Sorted(maps.Keys(constants)) {
			fmt.Fprintf(stdout, "  constant %s = %v\n", name, constants[name])
		}
	}

	hits, misses := cache.Stats()
	logger.Debug("parse finished", slog.Uint64("hits", hits), slog.Uint64("misses", misses))
	return code
}

// loadContext reads a YAML or JSON file of fields, enums and constants.
func loadContext(path string) (*rules.Context, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return rules.ParseContext(raw)
}
