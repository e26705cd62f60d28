package stage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"benchmgr/internal/definition"
)

// Registry maps stage names to handlers and implements Executor.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a stage name, replacing any previous handler.
func (r *Registry) Register(name string, handler Handler) {
	name = strings.TrimSpace(name)
	if name == "" || handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Names returns the registered stage names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the handler registered for stageName.
func (r *Registry) Execute(ctx context.Context, def *definition.Definition, stageName string) error {
	r.mu.RLock()
	handler, ok := r.handlers[stageName]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stageName)
	}
	return handler(ctx, def)
}

// Health reports whether a pipeline stage has a handler. Detail explains a
// stage that is not ready.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// HealthCheck reports, for every stage in the kind's pipeline, whether a
// handler is registered.
func (r *Registry) HealthCheck(kind definition.Kind) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pipeline := kind.Pipeline()
	out := make([]Health, 0, len(pipeline))
	for _, name := range pipeline {
		h := Health{Name: name}
		if _, h.Ready = r.handlers[name]; !h.Ready {
			h.Detail = "no handler registered"
		}
		out = append(out, h)
	}
	return out
}

// Ready returns an error naming every stage of the kind's pipeline that has
// no handler.
func (r *Registry) Ready(kind definition.Kind) error {
	var missing []string
	for _, h := range r.HealthCheck(kind) {
		if !h.Ready {
			missing = append(missing, h.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s pipeline has no handler for %s", ErrUnknownStage, kind, strings.Join(missing, ", "))
}
