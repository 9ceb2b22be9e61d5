package symbols

import (
	"sort"
	"sync"

	"github.com/rendis/expressive/pkg/schema"
)

// Registry is the thread-safe library function table. The same name may be
// registered any number of times; calls resolving to two signatures of equal
// arity are ambiguous. Once closed, the registry rejects registrations.
type Registry struct {
	mu     sync.RWMutex
	funcs  map[string][]*Function
	closed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string][]*Function),
	}
}

// Register wraps fn and adds it under name.
func (r *Registry) Register(name string, fn any) error {
	f, err := NewFunction(name, fn, nil)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return schema.NewErrorf(schema.ErrCodeConflict, "function %q registered after the registry was closed", name)
	}
	r.funcs[name] = append(r.funcs[name], f)
	return nil
}

// Close freezes the registry. Further Register calls fail with CONFLICT.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Closed reports whether the registry was closed.
func (r *Registry) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Lookup returns every signature registered under name.
func (r *Registry) Lookup(name string) []*Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Function(nil), r.funcs[name]...)
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered signatures.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, fs := range r.funcs {
		n += len(fs)
	}
	return n
}

// WithArity filters signatures by parameter count.
func WithArity(funcs []*Function, arity int) []*Function {
	var out []*Function
	for _, f := range funcs {
		if f.Arity() == arity {
			out = append(out, f)
		}
	}
	return out
}
