package tool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyToolName is returned when registering a tool without a name.
	ErrEmptyToolName = errors.New("tool name must not be empty")
	// ErrDuplicateTool is returned when two tools normalise to the same name.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Registry is an immutable-after-construction lookup table of tools keyed by
// lower-cased name. It preserves registration order for prompt rendering.
// Lookups after construction are safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []Tool
}

// NewRegistry builds a registry from an explicit list of tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t Tool) error {
	key := normalize(t.Name())
	if key == "" {
		return ErrEmptyToolName
	}
	if _, exists := r.tools[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
	}
	r.tools[key] = t
	r.order = append(r.order, t)
	return nil
}

// Lookup resolves a tool by name, ignoring case and surrounding whitespace.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[normalize(name)]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	return append([]Tool(nil), r.order...)
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, t := range r.order {
		names = append(names, t.Name())
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int { return len(r.order) }

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
