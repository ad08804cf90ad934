package cmd

import (
	"fmt"
	"strings"

	"github.com/ntse/terrarunt/internal/depgraph"
	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show the dependency graph and the execution order",
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

			graph, err := depgraph.Build(stacks)
			if err != nil {
				return err
			}
			plan := graph.Schedule()

			fmt.Println("Dependency graph:")
			for _, st := range plan.Stacks() {
				if len(st.Dependencies) == 0 {
					fmt.Printf("  %s\n", st.Name)
					continue
				}
				fmt.Printf("  %s -> %s\n", st.Name, strings.Join(st.Dependencies, ", "))
			}

			fmt.Printf("\nApply order:   %s\n", strings.Join(plan.Names(), " -> "))
			fmt.Printf("Destroy order: %s\n", strings.Join(plan.Reversed().Names(), " -> "))
			return nil
		},
	}
}
