// Package cmd wires the terrarunt command-line interface. Recognized
// commands drive the multi-stack engine; anything else is passed through
// verbatim to the provisioner.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ntse/terrarunt/internal/build"
	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/spf13/cobra"
)

// exitCodeError carries an explicit process exit status through cobra.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   build.Slug,
		Short: "A simple Terraform wrapper for managing stacks",
		Long: `Terrarunt orchestrates Terraform across a tree of stacks, applying them
in declared dependency order and destroying them in the exact reverse.

Unrecognized commands are forwarded verbatim to the Terraform binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runPassthrough,
	}

	rootCmd.PersistentFlags().String("env", "", "Environment name (e.g. dev, staging, prod)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Show what would be done without executing")
	rootCmd.PersistentFlags().String("terraform-bin", "", "Path to the Terraform binary")
	rootCmd.PersistentFlags().String("config", "", "Path to the terrarunt config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress log output")

	rootCmd.Flags().String("stack", "", "Stack whose directory a passthrough command runs in")

	// Stop flag parsing at the first positional argument so that
	// provisioner flags survive passthrough untouched.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(
		singleStackCmd(executor.OpInit),
		singleStackCmd(executor.OpPlan),
		singleStackCmd(executor.OpApply),
		singleStackCmd(executor.OpDestroy),
		allStacksCmd(executor.OpInit),
		allStacksCmd(executor.OpPlan),
		allStacksCmd(executor.OpApply),
		allStacksCmd(executor.OpDestroy),
		listStacksCmd(),
		validateCmd(),
		graphCmd(),
		bootstrapCmd(),
		cleanCmd(),
		versionCmd(),
	)

	return rootCmd
}

// runPassthrough forwards an unrecognized command to the provisioner
// exactly once, bypassing the multi-stack engine.
func runPassthrough(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx, err := NewContext(cmd)
	if err != nil {
		return err
	}

	dir := ctx.Root()
	if stackName, _ := cmd.Flags().GetString("stack"); stackName != "" {
		stacks, err := ctx.Locator().Discover(ctx)
		if err != nil {
			return err
		}
		st, err := stack.Find(stacks, stackName)
		if err != nil {
			return err
		}
		dir = st.Dir
	}

	logger.Info(ctx, "Passing command through to provisioner", "args", args)
	if _, err := ctx.Operations().Passthrough(ctx, dir, ctx.Env, args); err != nil {
		return err
	}
	return nil
}

// Execute runs the CLI and returns the process exit status.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	// Interrupt wins over any wrapped exit status: a cancelled run must
	// exit 130 even when the failing command mapped the error itself.
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "Operation cancelled")
		return 130
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
