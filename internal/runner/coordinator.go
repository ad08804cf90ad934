// Package runner drives the multi-stack pipeline: discover stacks, build
// the dependency graph, schedule, then execute stacks strictly in plan
// order, one at a time. There is no parallelism: later stacks may read
// state produced by earlier ones, and concurrent provisioner invocations
// risk mutating shared backend state.
package runner

import (
	"context"

	"github.com/google/uuid"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/depgraph"
	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/stack"
)

// StackExecutor runs one operation against one stack, blocking until the
// subprocess terminates.
type StackExecutor interface {
	Execute(ctx context.Context, st *stack.Stack, op executor.Operation, env string, extraArgs []string) (*executor.Result, error)
}

// Locator discovers the stacks for a run.
type Locator interface {
	Discover(ctx context.Context) ([]*stack.Stack, error)
}

// Coordinator owns the ExecutionPlan and the RunResult collection for one
// run at a time.
type Coordinator struct {
	cfg     *config.Config
	locator Locator
	exec    StackExecutor
}

// New returns a Coordinator.
func New(cfg *config.Config, locator Locator, exec StackExecutor) *Coordinator {
	return &Coordinator{cfg: cfg, locator: locator, exec: exec}
}

// Plan discovers stacks, builds the graph and returns the apply-order
// plan without executing anything. Configuration and graph errors never
// partially execute.
func (c *Coordinator) Plan(ctx context.Context) (*depgraph.ExecutionPlan, error) {
	stacks, err := c.locator.Discover(ctx)
	if err != nil {
		return nil, err
	}
	graph, err := depgraph.Build(stacks)
	if err != nil {
		return nil, err
	}
	return graph.Schedule(), nil
}

// Run executes op across all discovered stacks. Destroy-like operations
// run the exact reverse of the apply order. The default policy is
// fail-fast: the first failing stack halts the plan and the remaining
// stacks are recorded as skipped, never attempted. Continue-on-error is an
// explicit opt-in via config.
func (c *Coordinator) Run(ctx context.Context, op executor.Operation, env string, extraArgs []string) *RunResult {
	result := &RunResult{RunID: uuid.New().String(), State: StateIdle}
	ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With("run", result.RunID))

	result.State = StateDiscovering
	stacks, err := c.locator.Discover(ctx)
	if err != nil {
		result.Err = err
		result.finalize(StateAborted)
		return result
	}

	result.State = StateGraphBuilding
	graph, err := depgraph.Build(stacks)
	if err != nil {
		result.Err = err
		result.finalize(StateAborted)
		return result
	}

	result.State = StateScheduling
	plan := graph.Schedule()
	if op == executor.OpDestroy {
		plan = plan.Reversed()
	}

	if plan.Len() == 0 {
		logger.Warn(ctx, "No stacks found, nothing to do")
		result.finalize(StateCompleted)
		return result
	}

	logger.Info(ctx, "Execution order", "operation", string(op), "stacks", plan.Names())

	result.State = StateExecuting
	c.execute(ctx, plan, op, env, extraArgs, result)
	return result
}

func (c *Coordinator) execute(ctx context.Context, plan *depgraph.ExecutionPlan, op executor.Operation, env string, extraArgs []string, result *RunResult) {
	ordered := plan.Stacks()

	for i, st := range ordered {
		if op == executor.OpDestroy && st.SkipOnDestroy {
			logger.Info(ctx, "Skipping destroy", "stack", st.Name, "reason", "skip_on_destroy")
			result.append(StackResult{Stack: st, Outcome: OutcomeSkipped})
			continue
		}

		res, err := c.exec.Execute(ctx, st, op, env, extraArgs)
		if err == nil {
			result.append(StackResult{Stack: st, Outcome: OutcomeSuccess, Output: output(res)})
			continue
		}

		logger.Error(ctx, "Stack execution failed", "stack", st.Name, "err", err)
		result.append(StackResult{
			Stack:    st,
			Outcome:  OutcomeFailure,
			ExitCode: exitCode(res),
			Output:   output(res),
			Err:      err,
		})

		if ctx.Err() != nil {
			// External interrupt: the in-flight stack is recorded as a
			// failure and the run aborts.
			skipRemaining(ordered[i+1:], result)
			result.Err = ctx.Err()
			result.finalize(StateAborted)
			return
		}

		if !c.cfg.ContinueOnError {
			// Fail-fast: dependents of a failed stack may be in an
			// inconsistent state, so the rest of the plan is never
			// attempted.
			skipRemaining(ordered[i+1:], result)
			result.finalize(StateCompleted)
			return
		}
	}

	result.finalize(StateCompleted)
}

func skipRemaining(stacks []*stack.Stack, result *RunResult) {
	for _, st := range stacks {
		result.append(StackResult{Stack: st, Outcome: OutcomeSkipped})
	}
}

func output(res *executor.Result) string {
	if res == nil {
		return ""
	}
	return res.Output
}

func exitCode(res *executor.Result) int {
	if res == nil {
		return -1
	}
	return res.ExitCode
}
