package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/stretchr/testify/require"
)

func stackWithArtifacts(t *testing.T) *stack.Stack {
	t.Helper()
	dir := t.TempDir()

	for _, name := range []string{"main.tf", ".terraform.lock.hcl", "terraform.tfstate", "terraform.tfstate.backup", "crash.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("content"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".terraform", "providers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".terraform", "providers", "plugin"), []byte("bin"), 0o644))

	return &stack.Stack{Name: "vpc", Dir: dir}
}

func TestCleanStack(t *testing.T) {
	t.Parallel()

	t.Run("RemovesGeneratedFilesOnly", func(t *testing.T) {
		st := stackWithArtifacts(t)
		c := New(false)

		require.NoError(t, c.CleanStack(context.Background(), st, false))

		require.True(t, fileutil.FileExists(filepath.Join(st.Dir, "main.tf")))
		require.True(t, fileutil.FileExists(filepath.Join(st.Dir, "terraform.tfstate")))
		require.False(t, fileutil.FileExists(filepath.Join(st.Dir, ".terraform.lock.hcl")))
		require.False(t, fileutil.FileExists(filepath.Join(st.Dir, "terraform.tfstate.backup")))
		require.False(t, fileutil.FileExists(filepath.Join(st.Dir, "crash.log")))
		require.False(t, fileutil.IsDir(filepath.Join(st.Dir, ".terraform")))
	})

	t.Run("IncludeState", func(t *testing.T) {
		st := stackWithArtifacts(t)
		c := New(false)

		require.NoError(t, c.CleanStack(context.Background(), st, true))
		require.False(t, fileutil.FileExists(filepath.Join(st.Dir, "terraform.tfstate")))
		require.True(t, fileutil.FileExists(filepath.Join(st.Dir, "main.tf")))
	})

	t.Run("DryRunRemovesNothing", func(t *testing.T) {
		st := stackWithArtifacts(t)
		c := New(true)

		require.NoError(t, c.CleanStack(context.Background(), st, true))
		require.True(t, fileutil.FileExists(filepath.Join(st.Dir, ".terraform.lock.hcl")))
		require.True(t, fileutil.FileExists(filepath.Join(st.Dir, "terraform.tfstate")))
		require.True(t, fileutil.IsDir(filepath.Join(st.Dir, ".terraform")))

		var sb strings.Builder
		c.ShowSummary(&sb)
		require.Contains(t, sb.String(), "Files removed:")
	})

	t.Run("NothingToClean", func(t *testing.T) {
		dir := t.TempDir()
		c := New(false)
		require.NoError(t, c.CleanStack(context.Background(), &stack.Stack{Name: "empty", Dir: dir}, false))

		var sb strings.Builder
		c.ShowSummary(&sb)
		require.Empty(t, sb.String())
	})
}

func TestCleanAll(t *testing.T) {
	t.Parallel()

	first := stackWithArtifacts(t)
	second := stackWithArtifacts(t)
	second.Name = "api"

	c := New(false)
	require.NoError(t, c.CleanAll(context.Background(), []*stack.Stack{first, second}, false))
	require.False(t, fileutil.FileExists(filepath.Join(first.Dir, "crash.log")))
	require.False(t, fileutil.FileExists(filepath.Join(second.Dir, "crash.log")))

	var sb strings.Builder
	c.ShowSummary(&sb)
	require.Contains(t, sb.String(), "Directories removed: 2")
}
