// Package s3 provides an API for granting clients temporary read access to
// objects held in an S3 compatible object store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrEmptyKey indicates an object key was empty after normalisation.
var ErrEmptyKey = errors.New("empty object key")

// Config configures a Presigner.
type Config struct {
	// Bucket the objects are stored in.
	Bucket string
	// EndpointURL overrides the AWS endpoint, e.g. for MinIO or Ceph.
	EndpointURL string
	// AccessKeyID and SecretAccessKey are static credentials. When both are
	// empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	// ForcePathStyle addresses buckets as path segments rather than hosts.
	ForcePathStyle bool
	Region         string
	// Expiry is the lifetime of each presigned URL.
	Expiry time.Duration
}

// New creates a Presigner instance.
func New(ctx context.Context, cfg Config) (*Presigner, error) {
	region := cfg.Region
	if region == "" {
		region = "undefined"
	}

	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("while loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awscfg, func(opts *s3.Options) {
		if cfg.EndpointURL != "" {
			opts.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		opts.UsePathStyle = cfg.ForcePathStyle
	})

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

// Presigner creates presigned GET URLs for objects in a single bucket.
type Presigner struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// URL creates a presigned GET URL for the object at key. Beamline file paths
// may be passed as is; the leading slash is dropped.
func (p Presigner) URL(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}

	req, err := p.presign.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(p.expiry),
	)
	if err != nil {
		return "", fmt.Errorf("while presigning object %q: %w", key, err)
	}
	return req.URL, nil
}
