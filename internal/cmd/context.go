package cmd

import (
	"context"
	"fmt"

	"github.com/ntse/terrarunt/internal/backend"
	"github.com/ntse/terrarunt/internal/bootstrap"
	"github.com/ntse/terrarunt/internal/cleaner"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/executor"
	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/runner"
	"github.com/ntse/terrarunt/internal/stack"
	"github.com/spf13/cobra"
)

// Context carries the loaded configuration and lazily-built collaborators
// for one command invocation.
type Context struct {
	context.Context

	Command *cobra.Command
	Config  *config.Config
	Env     string
	DryRun  bool

	root string
	ops  *executor.Operations
}

// NewContext loads configuration, applies command-line overrides and
// installs the logger into the context.
func NewContext(cmd *cobra.Command) (*Context, error) {
	ctx := cmd.Context()

	configFile, _ := cmd.Flags().GetString("config")
	var loaderOpts []config.LoaderOption
	if configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(configFile))
	}

	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		return nil, err
	}

	if bin, _ := cmd.Flags().GetString("terraform-bin"); bin != "" {
		cfg.TerraformBin = bin
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		cfg.Quiet = true
	}

	var opts []logger.Option
	if cfg.Debug {
		opts = append(opts, logger.WithDebug())
	}
	if cfg.Quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormat(cfg.LogFormat))
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(opts...))

	for _, warning := range cfg.Warnings {
		logger.Warn(ctx, warning)
	}

	env, _ := cmd.Flags().GetString("env")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	return &Context{
		Context: ctx,
		Command: cmd,
		Config:  cfg,
		Env:     env,
		DryRun:  dryRun,
		root:    fileutil.MustGetwd(),
	}, nil
}

// RequireEnv fails unless --env was given.
func (c *Context) RequireEnv() error {
	if c.Env == "" {
		return fmt.Errorf("--env is required for this command")
	}
	return nil
}

// Root returns the discovery root (the current working directory).
func (c *Context) Root() string {
	return c.root
}

// Locator returns a stack locator rooted at the working directory.
func (c *Context) Locator() *stack.Locator {
	return stack.NewLocator(c.Config, c.root)
}

// Backend returns the AWS backend provider.
func (c *Context) Backend() *backend.Provider {
	return backend.NewProvider(c.Config)
}

// Operations returns the provisioner operations layer, built once per
// command invocation so the dry-run record accumulates across stacks.
func (c *Context) Operations() *executor.Operations {
	if c.ops == nil {
		r := executor.NewRunner(c.Config, c.DryRun)
		c.ops = executor.NewOperations(c.Config, r, c.Backend(), c.root)
	}
	return c.ops
}

// Coordinator returns the multi-stack run coordinator.
func (c *Context) Coordinator() *runner.Coordinator {
	return runner.New(c.Config, c.Locator(), c.Operations())
}

// Bootstrapper returns the staged backend bootstrap manager.
func (c *Context) Bootstrapper() *bootstrap.Manager {
	return bootstrap.NewManager(c.Config, c.Operations(), c.Backend(), c.Locator(), c.root)
}

// Cleaner returns a workspace cleaner.
func (c *Context) Cleaner() *cleaner.Cleaner {
	return cleaner.New(c.DryRun)
}
