// Package blob archives cycle snapshots to S3-compatible object storage.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"eve-arbscan/internal/config"
	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/logger"
)

// objectAPI is the part of the S3 client the archiver uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Archiver uploads each persisted snapshot file.
type Archiver struct {
	client   objectAPI
	bucket   string
	prefix   string
	readFile func(string) ([]byte, error)
}

// New creates an Archiver for the configured bucket. Static credentials are
// used when an access key is set, otherwise the default AWS chain applies.
func New(ctx context.Context, cfg config.S3Config) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob: bucket name is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint)
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(endpoint) })
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	return newArchiver(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

func newArchiver(client objectAPI, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix, readFile: os.ReadFile}
}

// Health verifies the bucket is reachable.
func (a *Archiver) Health(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("blob: head bucket %s: %w", a.bucket, err)
	}
	return nil
}

// ObjectKey places a snapshot under {prefix}{strategy}/{file name}.
func ObjectKey(prefix string, c *engine.Cycle) string {
	return path.Join(strings.TrimSuffix(prefix, "/"), string(c.Strategy), filepath.Base(c.SnapshotPath))
}

// HandleCycle uploads the cycle's snapshot. Cycles without one are skipped.
func (a *Archiver) HandleCycle(ctx context.Context, c *engine.Cycle) error {
	if c.SnapshotPath == "" {
		return nil
	}
	data, err := a.readFile(c.SnapshotPath)
	if err != nil {
		return fmt.Errorf("blob: read snapshot: %w", err)
	}
	key := ObjectKey(a.prefix, c)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
		Metadata: map[string]string{
			"run-id": c.RunID.String(),
			"cycle":  fmt.Sprint(c.Number),
			"hub":    c.Hub.Abbrev(),
		},
	})
	if err != nil {
		return fmt.Errorf("blob: put object %s: %w", key, err)
	}
	logger.Debug("BLOB", fmt.Sprintf("archived s3://%s/%s", a.bucket, key))
	return nil
}

// normaliseEndpoint adds https:// when the endpoint has no scheme.
func normaliseEndpoint(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		return endpoint
	}
	return "https://" + endpoint
}
