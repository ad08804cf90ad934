// Package backend resolves the remote state backend for provisioner init:
// state bucket naming, per-stack state keys and the -backend-config
// arguments derived from them. LocalStack mode short-circuits the AWS
// lookups with well-known test values.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/logger"
)

const localStackEndpoint = "http://localhost:4566"

// Info is the resolved account and region context.
type Info struct {
	AccountID    string
	Region       string
	Profile      string
	IsLocalStack bool
}

// StateBucket returns the state bucket name for the account.
func (i Info) StateBucket() string {
	return fmt.Sprintf("%s-%s-state", i.AccountID, i.Region)
}

// StateKey returns the state object key for one stack in one environment.
func (i Info) StateKey(env, stackName string) string {
	return fmt.Sprintf("%s/%s/terraform.tfstate", env, stackName)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Provider resolves backend information lazily and answers existence
// queries used by bootstrap stage detection.
type Provider struct {
	cfg *config.Config

	mu   sync.Mutex
	info *Info
	sts  stsAPI
	s3   s3API
}

// NewProvider returns a Provider for the given configuration.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{cfg: cfg}
}

// Infer resolves account and region, caching the result for the process
// lifetime. In LocalStack mode no AWS call is made.
func (p *Provider) Infer(ctx context.Context) (Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.info != nil {
		return *p.info, nil
	}

	if p.cfg.IsLocalStack() {
		region := p.cfg.AWSRegion
		if region == "" {
			region = "us-east-1"
		}
		logger.Info(ctx, "LocalStack mode detected")
		p.info = &Info{AccountID: "000000000000", Region: region, IsLocalStack: true}
		return *p.info, nil
	}

	if err := p.initClients(ctx); err != nil {
		return Info{}, err
	}

	identity, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Info{}, fmt.Errorf("failed to resolve AWS caller identity: %w", err)
	}

	region := p.cfg.AWSRegion
	if region == "" {
		region = "us-east-1"
	}

	p.info = &Info{
		AccountID: aws.ToString(identity.Account),
		Region:    region,
		Profile:   p.cfg.AWSProfile,
	}
	logger.Info(ctx, "Resolved AWS context", "account", p.info.AccountID, "region", p.info.Region)
	return *p.info, nil
}

func (p *Provider) initClients(ctx context.Context) error {
	if p.sts != nil && p.s3 != nil {
		return nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if p.cfg.IsLocalStack() {
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
			awsconfig.WithRegion("us-east-1"),
		)
	}
	if p.cfg.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(p.cfg.AWSProfile))
	}
	if p.cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(p.cfg.AWSRegion))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if p.sts == nil {
		p.sts = sts.NewFromConfig(awsCfg)
	}
	if p.s3 == nil {
		if p.cfg.IsLocalStack() {
			p.s3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(localStackEndpoint)
				o.UsePathStyle = true
			})
		} else {
			p.s3 = s3.NewFromConfig(awsCfg)
		}
	}
	return nil
}

// BackendConfig returns the backend key-value configuration for one stack.
func (p *Provider) BackendConfig(ctx context.Context, env, stackName string) (map[string]string, error) {
	info, err := p.Infer(ctx)
	if err != nil {
		return nil, err
	}

	backendConfig := map[string]string{
		"bucket":  info.StateBucket(),
		"key":     info.StateKey(env, stackName),
		"region":  info.Region,
		"encrypt": "true",
	}

	if info.IsLocalStack {
		backendConfig["access_key"] = "test"
		backendConfig["secret_key"] = "test"
		backendConfig["endpoint"] = localStackEndpoint
		backendConfig["skip_credentials_validation"] = "true"
		backendConfig["skip_metadata_api_check"] = "true"
		backendConfig["skip_requesting_account_id"] = "true"
		backendConfig["force_path_style"] = "true"
	}

	return backendConfig, nil
}

// BackendArgs renders the backend configuration as provisioner CLI
// arguments in deterministic order.
func (p *Provider) BackendArgs(ctx context.Context, env, stackName string) ([]string, error) {
	backendConfig, err := p.BackendConfig(ctx, env, stackName)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(backendConfig))
	for k := range backendConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("-backend-config=%s=%s", k, backendConfig[k]))
	}
	return args, nil
}

// BucketExists reports whether the state bucket exists. Lookup errors are
// treated as absence.
func (p *Provider) BucketExists(ctx context.Context, bucket string) bool {
	if err := p.ensureS3(ctx); err != nil {
		logger.Debug(ctx, "Failed to initialize S3 client", "err", err)
		return false
	}
	_, err := p.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		logger.Debug(ctx, "Bucket lookup failed", "bucket", bucket, "err", err)
		return false
	}
	return true
}

// StateExists reports whether remote state exists for a stack.
func (p *Provider) StateExists(ctx context.Context, env, stackName string) bool {
	info, err := p.Infer(ctx)
	if err != nil {
		logger.Debug(ctx, "Failed to resolve AWS context", "err", err)
		return false
	}
	if err := p.ensureS3(ctx); err != nil {
		logger.Debug(ctx, "Failed to initialize S3 client", "err", err)
		return false
	}
	_, err = p.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(info.StateBucket()),
		Key:    aws.String(info.StateKey(env, stackName)),
	})
	if err != nil {
		logger.Debug(ctx, "State lookup failed", "stack", stackName, "err", err)
		return false
	}
	return true
}

func (p *Provider) ensureS3(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.s3 != nil {
		return nil
	}
	return p.initClients(ctx)
}
