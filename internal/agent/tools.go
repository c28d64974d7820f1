package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/andreasronge/ptc-runner-sub003/internal/compression"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/eval"
	"github.com/andreasronge/ptc-runner-sub003/internal/lisp/value"
)

// Tool is a host capability a PTC-Lisp program can invoke via `(call "name"
// args)`. Implementations receive the already-evaluated args map.
type Tool interface {
	// Name returns the tool's `tool/name` identifier.
	Name() string
	// Description is a one-line summary shown in the tool/ namespace
	// section of the compressed prompt.
	Description() string
	// ParamShape is a short parameter-shape hint, e.g. "{query: string}".
	ParamShape() string
	// Execute runs the tool against the evaluated args value and returns
	// a result value, or an error (caught and converted to a tool_error
	// by the evaluator).
	Execute(ctx context.Context, args value.Value) (value.Value, error)
}

// ToolRegistry holds the tools available to one run, keyed by name.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool name, sorted.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Specs returns the tool/ namespace summary consumed by the compression
// strategy, sorted by name so the rendered prompt is stable across runs.
func (r *ToolRegistry) Specs() []compression.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]compression.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, compression.ToolSpec{Name: t.Name(), ParamShape: t.ParamShape(), Description: t.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ToolFunc adapts the registry into the eval.ToolFunc signature the
// evaluator calls on `(call "name" args)`.
func (r *ToolRegistry) ToolFunc(ctx context.Context) eval.ToolFunc {
	return func(name string, args value.Value) (value.Value, error) {
		tool, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool: %s", name)
		}
		return tool.Execute(ctx, args)
	}
}

// empty is a ToolRegistry with nothing registered, used for :retry turns
// where tools are stripped so only return/fail remain callable.
func empty() *ToolRegistry {
	return NewToolRegistry()
}
