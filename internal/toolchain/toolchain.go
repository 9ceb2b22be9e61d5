// Package toolchain provides the standard library of functions expressions
// may call: date construction, string helpers and format checks.
//
// Text parameters are nullable. Null text has length 0, trims to null,
// concatenates as empty text and fails every predicate except
// IsNullOrWhiteSpace.
package toolchain

import (
	"time"
)

// Registrar accepts library functions. *expressive.Engine implements it.
type Registrar interface {
	RegisterFunction(name string, fn any) error
}

// Option configures the registered functions.
type Option func(*config)

type config struct {
	now func() time.Time
}

// WithClock replaces the time source of Now and Today.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

type function struct {
	name string
	fn   any
}

// Register adds every toolchain function to r.
func Register(r Registrar, opts ...Option) error {
	cfg := &config{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	all := make([]function, 0, 32)

	// Dates and durations.
	all = append(all, dateFunctions(cfg)...)

	// Strings.
	all = append(all, stringFunctions()...)

	// Format checks.
	all = append(all, checkFunctions()...)

	for _, f := range all {
		if err := r.RegisterFunction(f.name, f.fn); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the registered toolchain function names in registration order,
// one entry per signature.
func Names() []string {
	var names []string
	for _, group := range [][]function{dateFunctions(&config{now: time.Now}), stringFunctions(), checkFunctions()} {
		for _, f := range group {
			names = append(names, f.name)
		}
	}
	return names
}
