// Package s3src reads input objects from S3-compatible storage (AWS S3 or
// MinIO). Locations have the form s3://bucket/key.
package s3src

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds explicit construction parameters. Empty fields fall back to
// the default AWS credential and region chain.
type Config struct {
	Region          string
	Endpoint        string // optional custom endpoint, e.g. MinIO
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// ConfigFromEnv reads PHENOEXTRACT_S3_* variables:
//
//	PHENOEXTRACT_S3_REGION     (default us-east-1)
//	PHENOEXTRACT_S3_ENDPOINT   (optional)
//	PHENOEXTRACT_S3_PATH_STYLE true|false
//
// Credentials come from the standard AWS_* variables or profile chain.
func ConfigFromEnv() Config {
	return Config{
		Region:    os.Getenv("PHENOEXTRACT_S3_REGION"),
		Endpoint:  os.Getenv("PHENOEXTRACT_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("PHENOEXTRACT_S3_PATH_STYLE"), "true"),
	}
}

// getter is the subset of *s3.Client used here.
type getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store opens objects by bucket and key.
type Store struct {
	client getter
}

// New creates a Store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client}, nil
}

// Open streams the object at location (s3://bucket/key). The caller must
// close the returned body.
func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get %s: %w", location, err)
	}
	return out.Body, nil
}

// ParseLocation splits s3://bucket/key into its parts.
func ParseLocation(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("s3: parse %q: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("s3: %q is not an s3:// location", location)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3: %q must name a bucket and key", location)
	}
	return u.Host, key, nil
}
