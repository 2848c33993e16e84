package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mkarlsen/stratagem/internal/models"
)

var (
	ErrToolNotFound            = errors.New("tool not found")
	ErrParameterInvalid        = errors.New("parameter invalid")
	ErrUpstreamDataUnavailable = errors.New("upstream data unavailable")
)

// Tool is one registered capability. Execute never panics across the
// boundary and never returns nil; failures come back as a failed outcome
// with a readable reason.
type Tool interface {
	Name() string
	Kind() models.TaskKind
	Parameters() map[string]ParamSpec
	Execute(ctx context.Context, params map[string]any) *models.ToolOutcome
}

// ParamSpec describes one tool parameter for pre-invocation validation.
type ParamSpec struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Registry maps stable tool names to implementations. Registration
// happens once at wiring time; lookups are read-mostly and safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register a nil tool")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("cannot register a tool without a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ByKind returns the registered tools of one kind in registration order.
func (r *Registry) ByKind(kind models.TaskKind) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Tool
	for _, name := range r.order {
		if tool := r.tools[name]; tool.Kind() == kind {
			out = append(out, tool)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// NormalizeParams checks params against the tool's declared specs and
// fills in declared defaults. The input map is never mutated; callers get
// a copy ready to hand to Execute.
func NormalizeParams(tool Tool, params map[string]any) (map[string]any, error) {
	specs := tool.Parameters()
	out := make(map[string]any, len(params)+len(specs))
	for key, value := range params {
		out[key] = value
	}
	var missing []string
	for name, spec := range specs {
		if _, present := out[name]; present {
			continue
		}
		if spec.Required {
			missing = append(missing, name)
			continue
		}
		if spec.Default != nil {
			out[name] = spec.Default
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s requires %s", ErrParameterInvalid, tool.Name(), strings.Join(missing, ", "))
	}
	return out, nil
}

// StringParam reads a string parameter, tolerating absence.
func StringParam(params map[string]any, key string) (string, bool) {
	value, ok := params[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// FloatParam reads a numeric parameter. JSON round-trips and literal
// plan templates produce float64 or int values for the same field.
func FloatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// BoolParam reads a boolean parameter, tolerating absence.
func BoolParam(params map[string]any, key string) (bool, bool) {
	value, ok := params[key].(bool)
	return value, ok
}

// StringsParam reads a list-of-strings parameter in either its native or
// JSON-decoded ([]any) form.
func StringsParam(params map[string]any, key string) ([]string, bool) {
	switch v := params[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// FloatsParam reads a list-of-numbers parameter in either its native or
// JSON-decoded ([]any) form.
func FloatsParam(params map[string]any, key string) ([]float64, bool) {
	switch v := params[key].(type) {
	case []float64:
		return v, true
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}
