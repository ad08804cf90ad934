package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "terraform", cfg.TerraformBin)
	require.Equal(t, "terrarunt.yaml", cfg.StackFile)
	require.Equal(t, "dependencies.json", cfg.LegacyStackFile)
	require.Equal(t, 4, cfg.MaxDepth)
	require.Equal(t, "envs", cfg.EnvDir)
	require.Equal(t, time.Hour, cfg.Timeout)
	require.False(t, cfg.ContinueOnError)
	require.Equal(t, "text", cfg.LogFormat)
	require.Contains(t, cfg.Excludes, "**/.terraform/**")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TERRARUNT_TERRAFORM_BIN", "tofu")
	t.Setenv("TERRARUNT_MAX_DEPTH", "2")
	t.Setenv("TERRARUNT_TIMEOUT", "60")
	t.Setenv("TERRARUNT_LOG_FORMAT", "json")
	t.Setenv("AWS_REGION", "eu-west-2")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "tofu", cfg.TerraformBin)
	require.Equal(t, 2, cfg.MaxDepth)
	require.Equal(t, time.Minute, cfg.Timeout)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "eu-west-2", cfg.AWSRegion)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
terraformBin: tflocal
maxDepth: 6
continueOnError: true
discovery:
  exclude:
    - "sandbox/**"
`), 0o644))

	cfg, err := Load(WithConfigFile(file))
	require.NoError(t, err)
	require.Equal(t, "tflocal", cfg.TerraformBin)
	require.Equal(t, 6, cfg.MaxDepth)
	require.True(t, cfg.ContinueOnError)
	require.Equal(t, []string{"sandbox/**"}, cfg.Excludes)
	require.Equal(t, file, cfg.ConfigFile)
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	_, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
}

func TestLoadWarnings(t *testing.T) {
	t.Setenv("TERRARUNT_MAX_DEPTH", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxDepth)
	require.NotEmpty(t, cfg.Warnings)
}

func TestIsLocalStack(t *testing.T) {
	t.Parallel()

	require.True(t, (&Config{TerraformBin: "tflocal"}).IsLocalStack())
	require.True(t, (&Config{TerraformBin: "/usr/local/bin/tflocal"}).IsLocalStack())
	require.False(t, (&Config{TerraformBin: "terraform"}).IsLocalStack())
	require.False(t, (&Config{TerraformBin: "tofu"}).IsLocalStack())
}
