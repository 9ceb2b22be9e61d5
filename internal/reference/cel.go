package reference

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rendis/expressive/pkg/schema"
)

// CELEngine evaluates expressions with Google's Common Expression Language.
// Every top-level data key is declared as a dyn variable; environments and
// programs are cached per declared key set.
// Thread-safe: compiled programs are cached and reused across goroutines.
type CELEngine struct {
	mu    sync.RWMutex
	envs  map[string]*cel.Env
	cache map[string]cel.Program
}

// NewCELEngine creates a new CEL engine.
func NewCELEngine() *CELEngine {
	return &CELEngine{
		envs:  make(map[string]*cel.Env),
		cache: make(map[string]cel.Program),
	}
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Evaluate compiles (or retrieves from cache) a CEL expression and evaluates
// it against the data.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty CEL expression")
	}
	if data == nil {
		data = map[string]any{}
	}

	prg, err := e.getOrCompile(expression, slices.Sorted(maps.Keys(data)))
	if err != nil {
		return nil, err
	}

	out, _, err := prg.ContextEval(ctx, data)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
			"CEL evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"engine": "cel"})
	}
	return out.Value(), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *CELEngine) getOrCompile(expression string, vars []string) (cel.Program, error) {
	envKey := strings.Join(vars, ",")
	key := envKey + "\x00" + expression

	e.mu.RLock()
	if prg, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[key]; ok {
		return prg, nil
	}

	env, ok := e.envs[envKey]
	if !ok {
		opts := make([]cel.EnvOption, 0, len(vars)+1)
		opts = append(opts, cel.CrossTypeNumericComparisons(true))
		for _, v := range vars {
			opts = append(opts, cel.Variable(v, cel.DynType))
		}
		var err error
		env, err = cel.NewEnv(opts...)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "create CEL environment: %s", err.Error()).
				WithCause(err)
		}
		e.envs[envKey] = env
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"CEL compile error in %q: %s", expression, issues.Err().Error()).
			WithCause(issues.Err()).
			WithDetails(map[string]any{"engine": "cel"})
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"CEL program error for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"engine": "cel"})
	}

	e.cache[key] = prg
	return prg, nil
}

var _ Engine = (*CELEngine)(nil)
