// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the slice of the S3 API the downloader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// options holds optional overrides for AWS config loading.
type options struct {
	profile   string
	region    string
	endpoint  string
	pathStyle bool
	anonymous bool
}

// Option customizes how the S3 client is built.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile. Defaults to AWS_PROFILE/env chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override. Defaults to env/profile/metadata chain.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at an S3 compatible service, e.g. a local
// MinIO mirror. Such services usually need path style addressing.
func WithEndpoint(endpoint string, pathStyle bool) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.pathStyle = pathStyle
	}
}

// WithAnonymous skips request signing. Public data buckets do not need
// credentials.
func WithAnonymous() Option {
	return func(o *options) { o.anonymous = true }
}

// LoadAWSConfig loads AWS SDK v2 config. By default it inherits the shell's
// AWS setup (AWS_PROFILE, shared config, env, IMDS).
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	o := apply(opts)

	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(awsv2.AnonymousCredentials{}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return awsv2.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}

// NewS3 loads config and constructs an S3 client honoring the endpoint
// options.
func NewS3(ctx context.Context, opts ...Option) (*s3v2.Client, error) {
	cfg, err := LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	o := apply(opts)
	return s3v2.NewFromConfig(cfg, func(so *s3v2.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = awsv2.String(o.endpoint)
		}
		so.UsePathStyle = o.pathStyle
	}), nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 url: %s", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url must be s3://bucket/key: %s", raw)
	}
	return u.Host, key, nil
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
