package models

import "fmt"

// ToolOutcome is the uniform result envelope every tool invocation
// produces, success or not. A failed outcome carries a reason string in
// Error and never a partial Data payload.
type ToolOutcome struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func Succeed(data any) *ToolOutcome {
	return &ToolOutcome{Success: true, Data: data}
}

func Failf(format string, args ...any) *ToolOutcome {
	return &ToolOutcome{Success: false, Error: fmt.Sprintf(format, args...)}
}

func (o *ToolOutcome) WithMeta(key string, value any) *ToolOutcome {
	if o.Metadata == nil {
		o.Metadata = map[string]any{}
	}
	o.Metadata[key] = value
	return o
}
