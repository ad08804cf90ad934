// Package bootstrap breaks the chicken-and-egg dependency between the
// remote state bucket and the stacks that want to store state in it: the
// state-file stack is first applied with local state, its state is then
// migrated into the bucket it created, and the oidc stack is applied
// against the remote backend.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/ntse/terrarunt/internal/backend"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/runner"
	"github.com/ntse/terrarunt/internal/stack"
)

// Stage is a bootstrap progress marker.
type Stage int

const (
	StageNotStarted Stage = iota
	StageStateBucketCreated
	StageOIDCCreated
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not_started"
	case StageStateBucketCreated:
		return "state_bucket_created"
	case StageOIDCCreated:
		return "oidc_created"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const (
	stateFileStack = "state-file"
	oidcStack      = "oidc"
)

// Result is the outcome of a bootstrap attempt.
type Result struct {
	Stage Stage
	Err   error
}

// Manager drives the staged bootstrap.
type Manager struct {
	cfg     *config.Config
	ops     *executor.Operations
	backend *backend.Provider
	locator runner.Locator
	root    string
}

// NewManager returns a bootstrap Manager.
func NewManager(cfg *config.Config, ops *executor.Operations, provider *backend.Provider, locator runner.Locator, root string) *Manager {
	return &Manager{cfg: cfg, ops: ops, backend: provider, locator: locator, root: root}
}

// CurrentStage determines how far bootstrap has progressed by probing the
// state bucket and the per-stack remote state.
func (m *Manager) CurrentStage(ctx context.Context, env string) Stage {
	info, err := m.backend.Infer(ctx)
	if err != nil {
		logger.Debug(ctx, "Failed to resolve backend info", "err", err)
		return StageNotStarted
	}

	if !m.backend.BucketExists(ctx, info.StateBucket()) {
		return StageNotStarted
	}
	if !m.backend.StateExists(ctx, env, oidcStack) {
		return StageStateBucketCreated
	}
	if !m.backend.StateExists(ctx, env, stateFileStack) {
		return StageOIDCCreated
	}
	return StageCompleted
}

// Bootstrap runs the remaining stages for the environment.
func (m *Manager) Bootstrap(ctx context.Context, env string) Result {
	stage := m.CurrentStage(ctx, env)
	logger.Info(ctx, "Starting bootstrap", "stage", stage.String())

	if stage == StageNotStarted {
		if err := m.createStateBucket(ctx, env); err != nil {
			return Result{Stage: stage, Err: fmt.Errorf("stage 1 failed: %w", err)}
		}
		stage = StageStateBucketCreated
	}

	if stage == StageStateBucketCreated {
		if err := m.createOIDC(ctx, env); err != nil {
			return Result{Stage: stage, Err: fmt.Errorf("stage 2 failed: %w", err)}
		}
	}

	return Result{Stage: StageCompleted}
}

// createStateBucket applies the state-file stack with its remote backend
// disabled, then migrates the fresh local state into the bucket it just
// created.
func (m *Manager) createStateBucket(ctx context.Context, env string) error {
	st, err := m.findStack(ctx, stateFileStack)
	if err != nil {
		return err
	}

	if err := DisableBackend(st.Dir); err != nil {
		return err
	}
	defer func() {
		if err := EnableBackend(st.Dir); err != nil {
			logger.Error(ctx, "Failed to restore backend file", "stack", st.Name, "err", err)
		}
	}()

	env2, err := executor.AssembleEnv(ctx, m.cfg, st, m.root, env)
	if err != nil {
		return err
	}

	if _, err := m.run(ctx, st, []string{"init"}, env2); err != nil {
		return err
	}

	applyArgs := append([]string{"apply", "-auto-approve"}, executor.VarFileArgs(ctx, m.root, st.Dir, env)...)
	if _, err := m.run(ctx, st, applyArgs, env2); err != nil {
		return err
	}

	if err := EnableBackend(st.Dir); err != nil {
		return err
	}

	backendArgs, err := m.backend.BackendArgs(ctx, env, st.Name)
	if err != nil {
		return err
	}
	migrateArgs := append([]string{"init", "-migrate-state", "-force-copy"}, backendArgs...)
	_, err = m.run(ctx, st, migrateArgs, env2)
	return err
}

// createOIDC applies the oidc stack against the remote backend.
func (m *Manager) createOIDC(ctx context.Context, env string) error {
	st, err := m.findStack(ctx, oidcStack)
	if err != nil {
		return err
	}

	env2, err := executor.AssembleEnv(ctx, m.cfg, st, m.root, env)
	if err != nil {
		return err
	}

	backendArgs, err := m.backend.BackendArgs(ctx, env, st.Name)
	if err != nil {
		return err
	}
	if _, err := m.run(ctx, st, append([]string{"init"}, backendArgs...), env2); err != nil {
		return err
	}

	applyArgs := append([]string{"apply", "-auto-approve"}, executor.VarFileArgs(ctx, m.root, st.Dir, env)...)
	_, err = m.run(ctx, st, applyArgs, env2)
	return err
}

func (m *Manager) run(ctx context.Context, st *stack.Stack, args []string, env map[string]string) (*executor.Result, error) {
	return m.ops.Runner().Run(ctx, executor.Invocation{
		StackName: st.Name,
		Dir:       st.Dir,
		Args:      args,
		Env:       env,
	})
}

func (m *Manager) findStack(ctx context.Context, name string) (*stack.Stack, error) {
	stacks, err := m.locator.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return stack.Find(stacks, name)
}

// DisableBackend moves the backend file aside so the next init uses local
// state.
func DisableBackend(stackDir string) error {
	backendFile := filepath.Join(stackDir, "backend.tf")
	if !fileutil.FileExists(backendFile) {
		return nil
	}
	return os.Rename(backendFile, backendFile+".backup")
}

// EnableBackend restores a backend file moved aside by DisableBackend.
func EnableBackend(stackDir string) error {
	backupFile := filepath.Join(stackDir, "backend.tf.backup")
	if !fileutil.FileExists(backupFile) {
		return nil
	}
	return os.Rename(backupFile, filepath.Join(stackDir, "backend.tf"))
}

// ShowStatus renders the stage ladder for the environment.
func (m *Manager) ShowStatus(ctx context.Context, env string, w io.Writer) {
	current := m.CurrentStage(ctx, env)

	fmt.Fprintf(w, "\nBootstrap status for environment: %s\n", env)
	stages := []struct {
		stage Stage
		desc  string
	}{
		{StageNotStarted, "Not started"},
		{StageStateBucketCreated, "State bucket created"},
		{StageOIDCCreated, "OIDC stack created"},
		{StageCompleted, "Bootstrap completed"},
	}

	done := color.New(color.FgGreen)
	pending := color.New(color.Faint)
	for _, s := range stages {
		switch {
		case s.stage == current:
			fmt.Fprintf(w, "> %-24s %s (current)\n", s.stage, s.desc)
		case s.stage < current:
			done.Fprintf(w, "  %-24s %s\n", s.stage, s.desc)
		default:
			pending.Fprintf(w, "  %-24s %s\n", s.stage, s.desc)
		}
	}

	if current != StageCompleted {
		fmt.Fprintf(w, "\nNext: run 'terrarunt --env %s bootstrap' to continue\n", env)
	}
}
