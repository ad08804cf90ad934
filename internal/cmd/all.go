package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/runner"
	"github.com/spf13/cobra"
)

// allStacksCmd builds one of the init-all/plan-all/apply-all/destroy-all
// commands, running the operation across every discovered stack in
// dependency order.
func allStacksCmd(op executor.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s-all [-- extra args...]", op),
		Short: fmt.Sprintf("Run %s for every stack in dependency order", op),
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := NewContext(cmd)
			if err != nil {
				return err
			}
			if err := ctx.RequireEnv(); err != nil {
				return err
			}

			// init and plan have no side effects on managed resources, so
			// a failure in one stack does not poison the rest of the run.
			if op == executor.OpInit || op == executor.OpPlan {
				ctx.Config.ContinueOnError = true
			}

			if op == executor.OpDestroy && !ctx.DryRun {
				yes, _ := cmd.Flags().GetBool("yes")
				if !yes {
					ok, err := confirmDestroy(ctx)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("Destroy cancelled")
						return nil
					}
				}
			}

			result := ctx.Coordinator().Run(ctx, op, ctx.Env, args)

			if ctx.DryRun {
				ctx.Operations().Runner().ShowDryRunSummary(os.Stdout)
			}
			runner.PrintSummary(os.Stdout, result)

			if result.Err != nil && ctx.Err() != nil {
				return result.Err
			}
			if code := result.ExitCode(); code != 0 {
				if result.Err != nil {
					logger.Error(ctx, "Run failed", "err", result.Err)
				}
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	if op == executor.OpDestroy {
		cmd.Flags().Bool("yes", false, "Skip the destroy confirmation prompt")
	}
	return cmd
}

// confirmDestroy shows the destroy order and asks for confirmation.
func confirmDestroy(ctx *Context) (bool, error) {
	plan, err := ctx.Coordinator().Plan(ctx)
	if err != nil {
		return false, err
	}
	ordered := plan.Reversed()

	warn := color.New(color.FgRed, color.Bold)
	warn.Println("\nThe following stacks will be DESTROYED in this order:")
	for _, st := range ordered.Stacks() {
		if st.SkipOnDestroy {
			fmt.Printf("  - %s (skipped: skip_on_destroy)\n", st.Name)
			continue
		}
		fmt.Printf("  - %s\n", st.Name)
	}

	fmt.Print("\nType 'yes' to continue: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}
