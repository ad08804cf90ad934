package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func bootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the remote state backend for an environment",
		Long: `Bootstrap creates the remote state bucket and OIDC resources for an
environment. The state-file stack is first applied with local state, its
state is migrated into the bucket it created, then the oidc stack is
applied against the remote backend. Bootstrap is resumable: completed
stages are detected and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := NewContext(cmd)
			if err != nil {
				return err
			}
			if err := ctx.RequireEnv(); err != nil {
				return err
			}

			mgr := ctx.Bootstrapper()

			if status, _ := cmd.Flags().GetBool("status"); status {
				mgr.ShowStatus(ctx, ctx.Env, os.Stdout)
				return nil
			}

			result := mgr.Bootstrap(ctx, ctx.Env)
			if result.Err != nil {
				return fmt.Errorf("bootstrap halted at stage %s: %w", result.Stage, result.Err)
			}
			fmt.Printf("Bootstrap completed for environment %s\n", ctx.Env)
			if ctx.DryRun {
				ctx.Operations().Runner().ShowDryRunSummary(os.Stdout)
			}
			return nil
		},
	}

	cmd.Flags().Bool("status", false, "Show bootstrap progress without making changes")
	return cmd
}
