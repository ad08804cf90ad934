package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func listStacksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-stacks",
		Short: "List discovered stacks and their declared dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := NewContext(cmd)
			if err != nil {
				return err
			}

			stacks, err := ctx.Locator().Discover(ctx)
			if err != nil {
				return err
			}
			if len(stacks) == 0 {
				fmt.Println("No stacks found")
				return nil
			}

			bold := color.New(color.Bold)
			fmt.Printf("Found %d stacks:\n\n", len(stacks))
			for _, st := range stacks {
				bold.Printf("%s", st.Name)
				fmt.Printf("  (%s)\n", st.RelPath)
				if len(st.Dependencies) > 0 {
					fmt.Printf("    depends on: %s\n", strings.Join(st.Dependencies, ", "))
				}
				if st.SkipOnDestroy {
					fmt.Printf("    skip_on_destroy: true\n")
				}
			}
			return nil
		},
	}
}
