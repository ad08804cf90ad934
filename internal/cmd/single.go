package cmd

import (
	"fmt"

	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/spf13/cobra"
)

// singleStackCmd builds one of the init/plan/apply/destroy commands, each
// operating on a single named stack.
func singleStackCmd(op executor.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s --stack <name> [-- extra args...]", op),
		Short: fmt.Sprintf("Run %s for a single stack", op),
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := NewContext(cmd)
			if err != nil {
				return err
			}
			if err := ctx.RequireEnv(); err != nil {
				return err
			}

			stackName, _ := cmd.Flags().GetString("stack")
			stacks, err := ctx.Locator().Discover(ctx)
			if err != nil {
				return err
			}
			st, err := stack.Find(stacks, stackName)
			if err != nil {
				return err
			}

			if op == executor.OpDestroy && st.SkipOnDestroy {
				logger.Info(ctx, "Skipping destroy", "stack", st.Name, "reason", "skip_on_destroy")
				return nil
			}

			if _, err := ctx.Operations().Execute(ctx, st, op, ctx.Env, args); err != nil {
				logger.Error(ctx, "Operation failed", "stack", st.Name, "err", err)
				return &exitCodeError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().String("stack", "", "Stack name")
	_ = cmd.MarkFlagRequired("stack")
	return cmd
}
