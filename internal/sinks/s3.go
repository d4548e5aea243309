package sinks

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"foodpulse/internal/config"
)

// ObjectPutter is the part of the S3 client the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the cleaned workbook and every report file under
// <prefix>/<run id>/.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink builds a client from the default AWS credential chain. A custom
// endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Sink(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3SinkWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3SinkWithClient uses an existing client.
func NewS3SinkWithClient(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Name implements Sink.
func (s *S3Sink) Name() string { return "s3" }

// Publish implements Sink.
func (s *S3Sink) Publish(ctx context.Context, a *Artifacts) error {
	if a.Workbook != "" {
		if err := s.upload(ctx, a.Workbook, s.key(a.RunID, filepath.Base(a.Workbook))); err != nil {
			return err
		}
	}
	for _, name := range a.Files {
		if err := s.upload(ctx, filepath.Join(a.ReportDir, name), s.key(a.RunID, "report", filepath.ToSlash(name))); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Sink.
func (s *S3Sink) Close() error { return nil }

func (s *S3Sink) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *S3Sink) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("unable to upload %s to s3://%s/%s: %w", file, s.bucket, key, err)
	}
	return nil
}
