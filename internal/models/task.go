package models

import "fmt"

type TaskKind string

const (
	KindFetch     TaskKind = "fetch"
	KindAnalyze   TaskKind = "analyze"
	KindVisualize TaskKind = "visualize"
	KindReport    TaskKind = "report"
	KindCompare   TaskKind = "compare"
)

// Task is one node of an execution plan. DependsOn holds IDs of tasks in
// the same plan whose outputs this task consumes; the executor validates
// that every referenced ID exists and that plans stay acyclic.
type Task struct {
	ID        string         `json:"id"`
	Kind      TaskKind       `json:"kind"`
	ToolName  string         `json:"tool_name"`
	Params    map[string]any `json:"parameters"`
	DependsOn []string       `json:"depends_on,omitempty"`
}

// NewTask builds a task with the default ID of kind_toolname. Plan
// templates that need stable references set ID explicitly instead.
func NewTask(kind TaskKind, tool string, params map[string]any) Task {
	if params == nil {
		params = map[string]any{}
	}
	return Task{
		ID:       fmt.Sprintf("%s_%s", kind, tool),
		Kind:     kind,
		ToolName: tool,
		Params:   params,
	}
}
