package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/rendis/expressive/pkg/expressive"
)

// runCompose evaluates -template over the boolean arguments, e.g.
//
//	expressive compose -template '{0} && !{1}' true false
func runCompose(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(stderr)
	template := fs.String("template", "", "composition template such as {0} && ({1} || {2})")
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *template == "" {
		fmt.Fprintln(stderr, "Error: -template is required")
		return exitError
	}

	results := make([]bool, fs.NArg())
	for i, arg := range fs.Args() {
		b, err := strconv.ParseBool(arg)
		if err != nil {
			fmt.Fprintf(stderr, "Error: result %d: %q is not a boolean\n", i, arg)
			return exitError
		}
		results[i] = b
	}

	verdict, err := expressive.EvaluateComposition(*template, results)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, verdict)
	if !verdict {
		return exitFailed
	}
	return exitOK
}
