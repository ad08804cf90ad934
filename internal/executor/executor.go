// Package executor invokes the provisioner binary as a subprocess per
// stack, with the stack's working directory and merged environment. The
// exit code is the only contract consumed; output is streamed through and
// captured, never parsed.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/logger"
)

// StackExecutionError indicates a provisioner invocation that returned
// non-zero or could not be launched. It is local to the failing stack:
// already-completed results are preserved.
type StackExecutionError struct {
	Stack    string
	ExitCode int // -1 when the subprocess could not be launched
	Err      error
}

func (e *StackExecutionError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("stack %q: provisioner exited with code %d", e.Stack, e.ExitCode)
	}
	return fmt.Sprintf("stack %q: failed to launch provisioner: %v", e.Stack, e.Err)
}

func (e *StackExecutionError) Unwrap() error { return e.Err }

// Invocation describes a single provisioner subprocess call.
type Invocation struct {
	StackName string
	Dir       string
	Args      []string
	Env       map[string]string
}

// Result is the observable outcome of an invocation.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Runner executes provisioner invocations. It never retries: a failed
// invocation is a definitive outcome for that stack.
type Runner struct {
	cfg    *config.Config
	dryRun bool

	mu       sync.Mutex
	recorded []Invocation

	// Stdout and Stderr receive the streamed subprocess output. They
	// default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner. With dryRun set, invocations are recorded
// instead of executed.
func NewRunner(cfg *config.Config, dryRun bool) *Runner {
	return &Runner{
		cfg:    cfg,
		dryRun: dryRun,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run launches the provisioner for one invocation and blocks until it
// terminates. A non-zero exit or a launch failure is returned as a
// StackExecutionError together with the captured result.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	command := append([]string{r.cfg.TerraformBin}, inv.Args...)

	if r.dryRun {
		r.mu.Lock()
		r.recorded = append(r.recorded, inv)
		r.mu.Unlock()
		logger.Info(ctx, "[DRY RUN] Would execute", "command", strings.Join(command, " "), "dir", inv.Dir)
		return &Result{ExitCode: 0}, nil
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	logger.Info(ctx, "Executing", "command", strings.Join(command, " "), "dir", inv.Dir)

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = envSlice(inv.Env)
	cmd.Stdout = io.MultiWriter(r.Stdout, &buf)
	cmd.Stderr = io.MultiWriter(r.Stderr, &buf)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
	cmd.Cancel = func() error {
		// Terminate the whole process group so the provisioner's children
		// do not outlive it.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	started := time.Now()
	err := cmd.Run()
	result := &Result{
		ExitCode: exitCode(err),
		Output:   buf.String(),
		Duration: time.Since(started),
	}

	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil:
		// Timeout or external interrupt: the subprocess was forcibly
		// terminated and the invocation counts as a failure.
		return result, &StackExecutionError{Stack: inv.StackName, ExitCode: result.ExitCode, Err: ctx.Err()}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &StackExecutionError{Stack: inv.StackName, ExitCode: exitErr.ExitCode(), Err: err}
		}
		result.ExitCode = -1
		return result, &StackExecutionError{Stack: inv.StackName, ExitCode: -1, Err: err}
	}
}

// Recorded returns the invocations captured during a dry run.
func (r *Runner) Recorded() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.recorded...)
}

// ShowDryRunSummary writes the recorded invocations to w.
func (r *Runner) ShowDryRunSummary(w io.Writer) {
	recorded := r.Recorded()
	if !r.dryRun || len(recorded) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "DRY RUN SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for i, inv := range recorded {
		command := append([]string{r.cfg.TerraformBin}, inv.Args...)
		fmt.Fprintf(w, "%d. %s\n   Directory: %s\n", i+1, strings.Join(command, " "), inv.Dir)
	}
	fmt.Fprintf(w, "Total commands: %d\n", len(recorded))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// envSlice renders an environment map as a sorted KEY=VALUE slice.
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
