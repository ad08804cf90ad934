package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/ntse/terrarunt/internal/build"
	"github.com/spf13/viper"
)

// Load creates a new configuration by instantiating a Loader with the
// provided options and invoking its Load method.
func Load(opts ...LoaderOption) (*Config, error) {
	loader := NewLoader(opts...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Loader reads and merges configuration from the config file, environment
// variables and defaults.
type Loader struct {
	configFile string
	warnings   []string
}

// LoaderOption is a functional option for a Loader.
type LoaderOption func(*Loader)

// WithConfigFile sets an explicit configuration file path.
func WithConfigFile(configFile string) LoaderOption {
	return func(l *Loader) {
		l.configFile = configFile
	}
}

// NewLoader creates a new Loader and applies all given options.
func NewLoader(options ...LoaderOption) *Loader {
	loader := &Loader{}
	for _, option := range options {
		option(loader)
	}
	return loader
}

// Load initializes viper, reads the configuration file if present, and
// returns a fully built Config.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	l.setupViper(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := l.buildConfig(v)
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Warnings = l.warnings
	return cfg, nil
}

func (l *Loader) setupViper(v *viper.Viper) {
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, build.Slug))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(build.Slug))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("terraformBin", "TERRARUNT_TERRAFORM_BIN")
	_ = v.BindEnv("stackFile", "TERRARUNT_STACK_FILE")
	_ = v.BindEnv("maxDepth", "TERRARUNT_MAX_DEPTH")
	_ = v.BindEnv("timeout", "TERRARUNT_TIMEOUT")
	_ = v.BindEnv("logFormat", "TERRARUNT_LOG_FORMAT")
	_ = v.BindEnv("awsRegion", "AWS_REGION")
	_ = v.BindEnv("awsProfile", "AWS_PROFILE")

	v.SetDefault("terraformBin", "terraform")
	v.SetDefault("stackFile", "terrarunt.yaml")
	v.SetDefault("legacyStackFile", "dependencies.json")
	v.SetDefault("maxDepth", 4)
	v.SetDefault("envDir", "envs")
	v.SetDefault("timeout", 3600)
	v.SetDefault("logFormat", "text")
	v.SetDefault("discovery.exclude", []string{"**/.terraform/**", "**/.git/**"})
}

func (l *Loader) buildConfig(v *viper.Viper) *Config {
	cfg := &Config{
		TerraformBin:    v.GetString("terraformBin"),
		StackFile:       v.GetString("stackFile"),
		LegacyStackFile: v.GetString("legacyStackFile"),
		MaxDepth:        v.GetInt("maxDepth"),
		Excludes:        v.GetStringSlice("discovery.exclude"),
		EnvDir:          v.GetString("envDir"),
		Timeout:         time.Duration(v.GetInt("timeout")) * time.Second,
		ContinueOnError: v.GetBool("continueOnError"),
		AWSRegion:       v.GetString("awsRegion"),
		AWSProfile:      v.GetString("awsProfile"),
		Debug:           v.GetBool("debug"),
		Quiet:           v.GetBool("quiet"),
		LogFormat:       v.GetString("logFormat"),
	}

	if cfg.MaxDepth < 0 {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid maxDepth %d, using unbounded", cfg.MaxDepth))
		cfg.MaxDepth = 0
	}
	if cfg.Timeout < 0 {
		l.warnings = append(l.warnings, "negative timeout ignored")
		cfg.Timeout = 0
	}
	return cfg
}
