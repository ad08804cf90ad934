package cmd

import (
	"os"

	"github.com/ntse/terrarunt/internal/stack"
	"github.com/spf13/cobra"
)

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove provisioner-generated local files from stack directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := NewContext(cmd)
			if err != nil {
				return err
			}

			includeState, _ := cmd.Flags().GetBool("state")
			stackName, _ := cmd.Flags().GetString("stack")

			stacks, err := ctx.Locator().Discover(ctx)
			if err != nil {
				return err
			}

			c := ctx.Cleaner()
			if stackName != "" {
				st, err := stack.Find(stacks, stackName)
				if err != nil {
					return err
				}
				err = c.CleanStack(ctx, st, includeState)
				c.ShowSummary(os.Stdout)
				return err
			}

			err = c.CleanAll(ctx, stacks, includeState)
			c.ShowSummary(os.Stdout)
			return err
		},
	}

	cmd.Flags().String("stack", "", "Clean a single stack instead of all")
	cmd.Flags().Bool("state", false, "Also remove local state files")
	return cmd
}
