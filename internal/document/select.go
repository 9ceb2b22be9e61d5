package document

import (
	"context"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/rendis/expressive/pkg/schema"
)

// Selector runs jq queries over decoded documents.
// Thread-safe: compiled *gojq.Code objects are cached and reused across goroutines.
type Selector struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewSelector creates a new jq selector.
func NewSelector() *Selector {
	return &Selector{
		cache: make(map[string]*gojq.Code),
	}
}

// Select runs query against doc and returns every output. An empty query
// selects the document itself; an array document then yields its elements.
func (s *Selector) Select(ctx context.Context, query string, doc any) ([]any, error) {
	if query == "" {
		if items, ok := doc.([]any); ok {
			return items, nil
		}
		return []any{doc}, nil
	}

	code, err := s.getOrCompile(query)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, Normalize(doc))

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeEvaluation,
				"jq evaluation failed for %q: %s", query, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"query": query})
		}
		results = append(results, val)
	}
	return results, nil
}

// Objects is like Select but requires every output to be a JSON object.
func (s *Selector) Objects(ctx context.Context, query string, doc any) ([]map[string]any, error) {
	items, err := s.Select(ctx, query, doc)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"selection %d of %q is %T, expected an object", i, query, item)
		}
		out = append(out, m)
	}
	return out, nil
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (s *Selector) getOrCompile(query string) (*gojq.Code, error) {
	s.mu.RLock()
	if code, ok := s.cache[query]; ok {
		s.mu.RUnlock()
		return code, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if code, ok := s.cache[query]; ok {
		return code, nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}

	code, err := gojq.Compile(parsed,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}

	s.cache[query] = code
	return code, nil
}
