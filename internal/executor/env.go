package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/fileutil"
	"github.com/ntse/terrarunt/internal/logger"
	"github.com/ntse/terrarunt/internal/stack"
)

// localStackEnv is injected when the provisioner targets LocalStack.
var localStackEnv = map[string]string{
	"AWS_ACCESS_KEY_ID":     "test",
	"AWS_SECRET_ACCESS_KEY": "test",
	"AWS_REGION":            "us-east-1",
	"AWS_ENDPOINT_URL":      "http://localhost:4566",
}

// AssembleEnv computes the merged subprocess environment for one stack:
// the base process environment, then the root-level environment file, then
// the stack-level one, later sources taking precedence on key collision.
// The parent process environment is never mutated.
func AssembleEnv(ctx context.Context, cfg *config.Config, st *stack.Stack, root, env string) (map[string]string, error) {
	merged := environMap()

	if cfg.IsLocalStack() {
		if err := mergo.Merge(&merged, localStackEnv, mergo.WithOverride); err != nil {
			return nil, err
		}
	}

	candidates := []string{
		filepath.Join(root, cfg.EnvDir, env+".env"),
		filepath.Join(st.Dir, env+".env"),
	}
	for _, file := range candidates {
		if env == "" || !fileutil.FileExists(file) {
			continue
		}
		vars, err := godotenv.Read(file)
		if err != nil {
			return nil, err
		}
		logger.Debug(ctx, "Loaded environment file", "file", file, "vars", len(vars))
		if err := mergo.Merge(&merged, vars, mergo.WithOverride); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

// VarFileArgs returns -var-file arguments for every candidate variable file
// that exists for the environment, in precedence order.
func VarFileArgs(ctx context.Context, root, stackDir, env string) []string {
	candidates := []string{
		filepath.Join(root, "environment", env+".tfvars"),
		filepath.Join(root, env+".tfvars"),
		filepath.Join(root, "globals.tfvars"),
		filepath.Join(stackDir, "tfvars", env+".tfvars"),
		filepath.Join(stackDir, env+".tfvars"),
	}

	var args []string
	for _, candidate := range candidates {
		if fileutil.FileExists(candidate) {
			logger.Debug(ctx, "Using var file", "file", candidate)
			args = append(args, "-var-file="+candidate)
		}
	}
	return args
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
