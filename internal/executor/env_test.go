package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAssembleEnv(t *testing.T) {
	cfg := &config.Config{TerraformBin: "terraform", EnvDir: "envs"}

	t.Run("InheritsProcessEnvironment", func(t *testing.T) {
		t.Setenv("TERRARUNT_TEST_INHERITED", "yes")

		root := t.TempDir()
		st := &stack.Stack{Name: "vpc", Dir: filepath.Join(root, "vpc")}
		env, err := AssembleEnv(context.Background(), cfg, st, root, "dev")
		require.NoError(t, err)
		require.Equal(t, "yes", env["TERRARUNT_TEST_INHERITED"])
	})

	t.Run("StackFileOverridesRootFile", func(t *testing.T) {
		root := t.TempDir()
		stackDir := filepath.Join(root, "vpc")
		writeFile(t, filepath.Join(root, "envs", "dev.env"), "SHARED=root\nROOT_ONLY=1\n")
		writeFile(t, filepath.Join(stackDir, "dev.env"), "SHARED=stack\nSTACK_ONLY=1\n")

		st := &stack.Stack{Name: "vpc", Dir: stackDir}
		env, err := AssembleEnv(context.Background(), cfg, st, root, "dev")
		require.NoError(t, err)
		require.Equal(t, "stack", env["SHARED"])
		require.Equal(t, "1", env["ROOT_ONLY"])
		require.Equal(t, "1", env["STACK_ONLY"])
	})

	t.Run("EnvFilesIgnoredWithoutEnvironment", func(t *testing.T) {
		root := t.TempDir()
		stackDir := filepath.Join(root, "vpc")
		writeFile(t, filepath.Join(stackDir, ".env"), "SHOULD_NOT_LOAD=1\n")

		st := &stack.Stack{Name: "vpc", Dir: stackDir}
		env, err := AssembleEnv(context.Background(), cfg, st, root, "")
		require.NoError(t, err)
		require.NotContains(t, env, "SHOULD_NOT_LOAD")
	})

	t.Run("ParentEnvironmentNotMutated", func(t *testing.T) {
		root := t.TempDir()
		stackDir := filepath.Join(root, "vpc")
		writeFile(t, filepath.Join(stackDir, "dev.env"), "TERRARUNT_TEST_LEAK=1\n")

		st := &stack.Stack{Name: "vpc", Dir: stackDir}
		env, err := AssembleEnv(context.Background(), cfg, st, root, "dev")
		require.NoError(t, err)
		require.Equal(t, "1", env["TERRARUNT_TEST_LEAK"])

		_, leaked := os.LookupEnv("TERRARUNT_TEST_LEAK")
		require.False(t, leaked)
	})

	t.Run("LocalStackInjection", func(t *testing.T) {
		localCfg := &config.Config{TerraformBin: "tflocal", EnvDir: "envs"}
		root := t.TempDir()
		st := &stack.Stack{Name: "vpc", Dir: filepath.Join(root, "vpc")}

		env, err := AssembleEnv(context.Background(), localCfg, st, root, "dev")
		require.NoError(t, err)
		require.Equal(t, "test", env["AWS_ACCESS_KEY_ID"])
		require.Equal(t, "test", env["AWS_SECRET_ACCESS_KEY"])
		require.Equal(t, "http://localhost:4566", env["AWS_ENDPOINT_URL"])
	})
}

func TestVarFileArgs(t *testing.T) {
	t.Parallel()

	t.Run("NoFiles", func(t *testing.T) {
		root := t.TempDir()
		args := VarFileArgs(context.Background(), root, filepath.Join(root, "vpc"), "dev")
		require.Empty(t, args)
	})

	t.Run("CandidateOrder", func(t *testing.T) {
		root := t.TempDir()
		stackDir := filepath.Join(root, "vpc")
		writeFile(t, filepath.Join(root, "environment", "dev.tfvars"), "")
		writeFile(t, filepath.Join(root, "globals.tfvars"), "")
		writeFile(t, filepath.Join(stackDir, "dev.tfvars"), "")

		args := VarFileArgs(context.Background(), root, stackDir, "dev")
		require.Equal(t, []string{
			"-var-file=" + filepath.Join(root, "environment", "dev.tfvars"),
			"-var-file=" + filepath.Join(root, "globals.tfvars"),
			"-var-file=" + filepath.Join(stackDir, "dev.tfvars"),
		}, args)
	})

	t.Run("StackTfvarsDirectory", func(t *testing.T) {
		root := t.TempDir()
		stackDir := filepath.Join(root, "vpc")
		writeFile(t, filepath.Join(stackDir, "tfvars", "prod.tfvars"), "")

		args := VarFileArgs(context.Background(), root, stackDir, "prod")
		require.Equal(t, []string{"-var-file=" + filepath.Join(stackDir, "tfvars", "prod.tfvars")}, args)
	})
}
