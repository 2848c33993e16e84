// Package executor drains task plans one task at a time, forwarding
// dependency outputs and converting every fault into a per-task outcome.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mkarlsen/stratagem/internal/models"
	"github.com/mkarlsen/stratagem/internal/tools"
)

// ToolSource resolves stable tool names to capabilities. *tools.Registry
// is the production implementation.
type ToolSource interface {
	Lookup(name string) (tools.Tool, error)
}

// Memory records execution side effects so later queries can recall them.
type Memory interface {
	RememberSymbol(symbol string)
	StoreResult(symbol, toolName string, payload any, at time.Time)
}

type Option func(*Executor)

// WithClock replaces the wall clock used for execution timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithFailFast makes the executor skip tasks whose dependencies failed
// instead of running them against missing inputs. Skipped tasks still
// get a failure outcome, so the one-outcome-per-task contract holds.
func WithFailFast(enabled bool) Option {
	return func(e *Executor) {
		e.failFast = enabled
	}
}

// Executor runs a validated plan strictly sequentially. A failing task
// never aborts the plan; the caller always receives one outcome per task.
type Executor struct {
	registry ToolSource
	memory   Memory
	clock    func() time.Time
	failFast bool
}

func New(registry ToolSource, memory Memory, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		memory:   memory,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds every task's outcome plus the order tasks actually ran in.
type Result struct {
	Outcomes map[string]*models.ToolOutcome
	Order    []string
}

// Failed returns the IDs of failed tasks in execution order.
func (r *Result) Failed() []string {
	var out []string
	for _, id := range r.Order {
		if outcome := r.Outcomes[id]; outcome != nil && !outcome.Success {
			out = append(out, id)
		}
	}
	return out
}

// Run validates the plan and executes it to completion. Validation
// failures (duplicate IDs, unknown dependencies, cycles) reject the whole
// plan before any task runs; after that, faults stay inside their task's
// outcome and the plan always drains.
func (e *Executor) Run(ctx context.Context, plan []models.Task) (*Result, error) {
	if err := validate(plan); err != nil {
		return nil, err
	}
	result := &Result{
		Outcomes: make(map[string]*models.ToolOutcome, len(plan)),
		Order:    make([]string, 0, len(plan)),
	}
	executed := make(map[string]bool, len(plan))
	failed := make(map[string]bool, len(plan))
	for len(result.Order) < len(plan) {
		task, ok := nextRunnable(plan, executed)
		if !ok {
			break
		}
		outcome := e.runTask(ctx, task, result.Outcomes, failed)
		executed[task.ID] = true
		if !outcome.Success {
			failed[task.ID] = true
		}
		result.Outcomes[task.ID] = outcome
		result.Order = append(result.Order, task.ID)
	}
	return result, nil
}

// validate rejects plans the drain loop could never finish: duplicate
// task IDs, dependencies on IDs outside the plan, and dependency cycles
// (checked with Kahn's algorithm).
func validate(plan []models.Task) error {
	ids := make(map[string]bool, len(plan))
	for _, task := range plan {
		if task.ID == "" {
			return fmt.Errorf("task for tool %s has no id", task.ToolName)
		}
		if ids[task.ID] {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		ids[task.ID] = true
	}
	indegree := make(map[string]int, len(plan))
	dependents := make(map[string][]string, len(plan))
	for _, task := range plan {
		for _, dep := range task.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("dependency %s referenced by %s is not in the plan", dep, task.ID)
			}
			indegree[task.ID]++
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}
	queue := make([]string, 0, len(plan))
	for _, task := range plan {
		if indegree[task.ID] == 0 {
			queue = append(queue, task.ID)
		}
	}
	seen := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		seen++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if seen != len(plan) {
		var stuck []string
		for _, task := range plan {
			if indegree[task.ID] > 0 {
				stuck = append(stuck, task.ID)
			}
		}
		return fmt.Errorf("dependency cycle among tasks: %s", strings.Join(stuck, ", "))
	}
	return nil
}

// nextRunnable picks the earliest pending task in original plan order
// whose dependencies have all completed, successful or not.
func nextRunnable(plan []models.Task, executed map[string]bool) (models.Task, bool) {
	for _, task := range plan {
		if executed[task.ID] {
			continue
		}
		ready := true
		for _, dep := range task.DependsOn {
			if !executed[dep] {
				ready = false
				break
			}
		}
		if ready {
			return task, true
		}
	}
	return models.Task{}, false
}

func (e *Executor) runTask(ctx context.Context, task models.Task, outcomes map[string]*models.ToolOutcome, failed map[string]bool) *models.ToolOutcome {
	startedAt := e.clock()
	if e.failFast {
		for _, dep := range task.DependsOn {
			if failed[dep] {
				return models.Failf("upstream dependency %s failed", dep).WithMeta("executed_at", startedAt)
			}
		}
	}
	tool, err := e.registry.Lookup(task.ToolName)
	if err != nil {
		return models.Failf("%v", err).WithMeta("executed_at", startedAt)
	}
	params, err := tools.NormalizeParams(tool, mergeParams(task, outcomes))
	if err != nil {
		return models.Failf("%v", err).WithMeta("executed_at", startedAt)
	}
	outcome := invoke(ctx, tool, params)
	outcome.WithMeta("executed_at", startedAt)
	if outcome.Success && e.memory != nil {
		if symbol, ok := tools.StringParam(task.Params, "symbol"); ok {
			e.memory.RememberSymbol(symbol)
			e.memory.StoreResult(symbol, task.ToolName, outcome.Data, e.clock())
		}
	}
	return outcome
}

// invoke contains tool panics; nothing a tool does may escape its task.
func invoke(ctx context.Context, tool tools.Tool, params map[string]any) (outcome *models.ToolOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.Failf("tool %s panicked: %v", tool.Name(), r)
		}
	}()
	outcome = tool.Execute(ctx, params)
	if outcome == nil {
		outcome = models.Failf("tool %s returned no outcome", tool.Name())
	}
	return outcome
}

// mergeParams copies the task's own parameters and layers in data carried
// from each successful dependency. Known payload shapes map onto the
// conventional downstream keys; anything else lands in a per-dependency
// bag under dependency_data so no output is silently dropped. With
// several signal dependencies (comparison tasks), each payload is also
// appended to strategy_signals in dependency order.
func mergeParams(task models.Task, outcomes map[string]*models.ToolOutcome) map[string]any {
	params := make(map[string]any, len(task.Params)+4)
	for key, value := range task.Params {
		params[key] = value
	}
	var strategySignals []*models.SignalPayload
	var aux map[string]any
	for _, dep := range task.DependsOn {
		outcome, ok := outcomes[dep]
		if !ok || !outcome.Success || outcome.Data == nil {
			continue
		}
		switch payload := outcome.Data.(type) {
		case *models.FetchPayload:
			if payload.Series != nil {
				params["data"] = payload.Series
			}
			if payload.Quote != nil {
				params["quote"] = payload.Quote
			}
			if payload.Profile != nil {
				params["profile"] = payload.Profile
			}
			if len(payload.News) > 0 {
				params["news"] = payload.News
			}
		case *models.AnalysisPayload:
			params["technical"] = payload
			if payload.Series != nil {
				params["data"] = payload.Series
			}
		case *models.SignalPayload:
			params["signals"] = payload
			if payload.Series != nil {
				params["data"] = payload.Series
			}
			strategySignals = append(strategySignals, payload)
		case *models.BacktestPayload:
			params["backtest"] = payload
			if payload.Series != nil {
				params["data"] = payload.Series
			}
		case *models.ComparisonPayload:
			params["comparison"] = payload
		default:
			if aux == nil {
				aux = map[string]any{}
			}
			aux[dep] = outcome.Data
		}
	}
	if len(strategySignals) > 0 {
		params["strategy_signals"] = strategySignals
	}
	if aux != nil {
		params["dependency_data"] = aux
	}
	return params
}
