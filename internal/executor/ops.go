package executor

import (
	"context"
	"fmt"

	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/stack"
)

// Operation is a provisioner operation understood by the engine.
type Operation string

const (
	OpInit    Operation = "init"
	OpPlan    Operation = "plan"
	OpApply   Operation = "apply"
	OpDestroy Operation = "destroy"
)

// BackendArgsProvider supplies -backend-config arguments for init. It is an
// interface so tests and backend-less setups can run without AWS access.
type BackendArgsProvider interface {
	BackendArgs(ctx context.Context, env, stackName string) ([]string, error)
}

// Operations composes provisioner invocations for stacks: argument
// assembly (operation, backend config, var files, forwarded args) plus
// environment assembly, delegated to the Runner for execution.
type Operations struct {
	cfg     *config.Config
	runner  *Runner
	backend BackendArgsProvider
	root    string
}

// NewOperations returns an Operations bound to a discovery root. backend
// may be nil, in which case init runs without backend configuration.
func NewOperations(cfg *config.Config, runner *Runner, backend BackendArgsProvider, root string) *Operations {
	return &Operations{cfg: cfg, runner: runner, backend: backend, root: root}
}

// Runner returns the underlying runner.
func (o *Operations) Runner() *Runner {
	return o.runner
}

// Execute runs one operation against one stack and blocks until the
// subprocess terminates.
func (o *Operations) Execute(ctx context.Context, st *stack.Stack, op Operation, env string, extraArgs []string) (*Result, error) {
	args, err := o.buildArgs(ctx, st, op, env)
	if err != nil {
		return nil, &StackExecutionError{Stack: st.Name, ExitCode: -1, Err: err}
	}
	args = append(args, extraArgs...)

	mergedEnv, err := AssembleEnv(ctx, o.cfg, st, o.root, env)
	if err != nil {
		return nil, &StackExecutionError{Stack: st.Name, ExitCode: -1, Err: err}
	}

	return o.runner.Run(ctx, Invocation{
		StackName: st.Name,
		Dir:       st.Dir,
		Args:      args,
		Env:       mergedEnv,
	})
}

// Passthrough forwards an unrecognized command verbatim to the provisioner
// exactly once, without involving the multi-stack engine.
func (o *Operations) Passthrough(ctx context.Context, dir, env string, args []string) (*Result, error) {
	mergedEnv, err := AssembleEnv(ctx, o.cfg, &stack.Stack{Dir: dir}, o.root, env)
	if err != nil {
		return nil, err
	}
	return o.runner.Run(ctx, Invocation{
		StackName: "-",
		Dir:       dir,
		Args:      args,
		Env:       mergedEnv,
	})
}

func (o *Operations) buildArgs(ctx context.Context, st *stack.Stack, op Operation, env string) ([]string, error) {
	varFiles := VarFileArgs(ctx, o.root, st.Dir, env)

	switch op {
	case OpInit:
		args := []string{"init"}
		if o.backend != nil {
			backendArgs, err := o.backend.BackendArgs(ctx, env, st.Name)
			if err != nil {
				return nil, err
			}
			args = append(args, backendArgs...)
		}
		return append(args, varFiles...), nil
	case OpPlan:
		return append([]string{"plan"}, varFiles...), nil
	case OpApply:
		return append([]string{"apply", "-auto-approve"}, varFiles...), nil
	case OpDestroy:
		return append([]string{"destroy", "-auto-approve"}, varFiles...), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}
