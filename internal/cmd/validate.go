package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/ntse/terrarunt/internal/depgraph"
	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate stack declarations and the dependency graph",
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
				color.New(color.FgRed).Printf("✗ %v\n", err)
				return &exitCodeError{code: 1}
			}

			plan := graph.Schedule()
			color.New(color.FgGreen).Printf("✓ %d stacks validated\n", plan.Len())
			if plan.Len() > 0 {
				fmt.Printf("Execution order: %s\n", strings.Join(plan.Names(), " -> "))
			}

			warn := color.New(color.FgYellow)
			for _, name := range missingBackendFiles(stacks) {
				warn.Printf("! stack %s has no backend.tf, remote state is not configured\n", name)
			}
			return nil
		},
	}
}

// missingBackendFiles returns the names of stacks without a backend.tf.
// These run on local state, which is usually an oversight outside bootstrap.
func missingBackendFiles(stacks []*stack.Stack) []string {
	var names []string
	for _, st := range stacks {
		if !fileutil.FileExists(filepath.Join(st.Dir, "backend.tf")) {
			names = append(names, st.Name)
		}
	}
	return names
}
