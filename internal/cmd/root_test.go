package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"init", "plan", "apply", "destroy",
		"init-all", "plan-all", "apply-all", "destroy-all",
		"list-stacks", "validate", "graph", "bootstrap", "clean", "version",
	} {
		require.True(t, names[want], "missing command %q", want)
	}

	// Provisioner flags must survive passthrough untouched.
	require.False(t, rootCmd.Flags().Parsed())
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("env"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("terraform-bin"))
}

func TestExecuteInterrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vpc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vpc", "main.tf"), nil, 0o644))
	t.Chdir(dir)

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"terrarunt", "--env", "dev", "--quiet", "apply", "--stack", "vpc"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, 130, Execute(ctx))
}

func TestExitCodeError(t *testing.T) {
	t.Parallel()

	err := &exitCodeError{code: 130}
	require.Equal(t, "exit code 130", err.Error())
}

func TestSingleStackCmdRequiresStackFlag(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"init", "plan", "apply", "destroy"} {
		cmd, _, err := NewRootCmd().Find([]string{name})
		require.NoError(t, err)

		flag := cmd.Flags().Lookup("stack")
		require.NotNil(t, flag, "%s must define --stack", name)
		require.Contains(t, flag.Annotations, cobra.BashCompOneRequiredFlag)
	}
}
