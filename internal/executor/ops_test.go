package executor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/stretchr/testify/require"
)

type staticBackend struct {
	args []string
	err  error
}

func (b *staticBackend) BackendArgs(_ context.Context, _, _ string) ([]string, error) {
	return b.args, b.err
}

func TestOperationsExecute(t *testing.T) {
	cfg := &config.Config{TerraformBin: "terraform", EnvDir: "envs"}

	newOps := func(t *testing.T, backend BackendArgsProvider) (*Operations, *Runner, string) {
		t.Helper()
		root := t.TempDir()
		r := NewRunner(cfg, true)
		return NewOperations(cfg, r, backend, root), r, root
	}

	stackIn := func(root string) *stack.Stack {
		return &stack.Stack{Name: "vpc", Dir: filepath.Join(root, "vpc")}
	}

	t.Run("InitIncludesBackendArgs", func(t *testing.T) {
		backend := &staticBackend{args: []string{"-backend-config=bucket=b", "-backend-config=key=k"}}
		ops, r, root := newOps(t, backend)

		_, err := ops.Execute(context.Background(), stackIn(root), OpInit, "dev", nil)
		require.NoError(t, err)

		recorded := r.Recorded()
		require.Len(t, recorded, 1)
		require.Equal(t, []string{"init", "-backend-config=bucket=b", "-backend-config=key=k"}, recorded[0].Args)
	})

	t.Run("InitWithoutBackend", func(t *testing.T) {
		ops, r, root := newOps(t, nil)

		_, err := ops.Execute(context.Background(), stackIn(root), OpInit, "dev", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"init"}, r.Recorded()[0].Args)
	})

	t.Run("ApplyAutoApproves", func(t *testing.T) {
		ops, r, root := newOps(t, nil)

		_, err := ops.Execute(context.Background(), stackIn(root), OpApply, "dev", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"apply", "-auto-approve"}, r.Recorded()[0].Args)
	})

	t.Run("DestroyAutoApproves", func(t *testing.T) {
		ops, r, root := newOps(t, nil)

		_, err := ops.Execute(context.Background(), stackIn(root), OpDestroy, "dev", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"destroy", "-auto-approve"}, r.Recorded()[0].Args)
	})

	t.Run("PlanIncludesVarFiles", func(t *testing.T) {
		ops, r, root := newOps(t, nil)
		writeFile(t, filepath.Join(root, "globals.tfvars"), "")

		_, err := ops.Execute(context.Background(), stackIn(root), OpPlan, "dev", nil)
		require.NoError(t, err)
		require.Equal(t, []string{"plan", "-var-file=" + filepath.Join(root, "globals.tfvars")}, r.Recorded()[0].Args)
	})

	t.Run("ExtraArgsAppended", func(t *testing.T) {
		ops, r, root := newOps(t, nil)

		_, err := ops.Execute(context.Background(), stackIn(root), OpPlan, "dev", []string{"-target=aws_s3_bucket.b"})
		require.NoError(t, err)
		require.Equal(t, []string{"plan", "-target=aws_s3_bucket.b"}, r.Recorded()[0].Args)
	})

	t.Run("BackendErrorIsFatalBeforeLaunch", func(t *testing.T) {
		backend := &staticBackend{err: context.DeadlineExceeded}
		ops, r, root := newOps(t, backend)

		_, err := ops.Execute(context.Background(), stackIn(root), OpInit, "dev", nil)
		require.Error(t, err)

		var execErr *StackExecutionError
		require.ErrorAs(t, err, &execErr)
		require.Equal(t, -1, execErr.ExitCode)
		require.Empty(t, r.Recorded())
	})
}

func TestOperationsPassthrough(t *testing.T) {
	cfg := &config.Config{TerraformBin: "terraform", EnvDir: "envs"}
	root := t.TempDir()
	r := NewRunner(cfg, true)
	ops := NewOperations(cfg, r, nil, root)

	_, err := ops.Passthrough(context.Background(), root, "dev", []string{"fmt", "-recursive"})
	require.NoError(t, err)

	recorded := r.Recorded()
	require.Len(t, recorded, 1)
	require.Equal(t, []string{"fmt", "-recursive"}, recorded[0].Args)
	require.Equal(t, root, recorded[0].Dir)
}
