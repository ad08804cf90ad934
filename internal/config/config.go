package config

import (
	"time"
)

// Config holds the resolved terrarunt configuration.
type Config struct {
	// TerraformBin is the provisioner binary to invoke.
	TerraformBin string
	// StackFile is the per-stack declaration file name.
	StackFile string
	// LegacyStackFile is the JSON declaration file kept for compatibility.
	LegacyStackFile string
	// MaxDepth bounds stack discovery below the root directory. Zero means
	// unbounded.
	MaxDepth int
	// Excludes are doublestar patterns for directories skipped during
	// discovery, relative to the root.
	Excludes []string
	// EnvDir is the directory (relative to the root) holding per-environment
	// variable files.
	EnvDir string
	// Timeout bounds a single provisioner invocation. Zero means no bound.
	Timeout time.Duration
	// ContinueOnError keeps executing remaining stacks after a failure.
	// Fail-fast is the default; this is an explicit opt-in.
	ContinueOnError bool

	// AWS settings used for backend configuration.
	AWSRegion  string
	AWSProfile string

	// Logging settings.
	Debug     bool
	Quiet     bool
	LogFormat string

	// ConfigFile is the path of the configuration file used, if any.
	ConfigFile string

	// Warnings collected while resolving the configuration.
	Warnings []string
}

// IsLocalStack reports whether the provisioner binary targets LocalStack.
func (c *Config) IsLocalStack() bool {
	return len(c.TerraformBin) >= 7 && c.TerraformBin[len(c.TerraformBin)-7:] == "tflocal"
}
