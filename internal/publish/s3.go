// internal/publish/s3.go
// Package: publish
package publish

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// S3Config configures the session upload.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	AccessKeyID     string // optional; the default credential chain is used when empty
	SecretAccessKey string
	UsePathStyle    bool
	// Concurrency caps parallel uploads.
	Concurrency int
}

// objectPutter is the part of the S3 client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies every session file to <bucket>/<prefix>/<name>/<file>.
type S3Uploader struct {
	client      objectPutter
	bucket      string
	prefix      string
	concurrency int
}

// NewS3Uploader builds an S3 client from cfg.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg S3Config) *S3Uploader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &S3Uploader{
		client:      client,
		bucket:      strings.TrimSpace(cfg.Bucket),
		prefix:      strings.Trim(cfg.Prefix, "/"),
		concurrency: cfg.Concurrency,
	}
}

func (u *S3Uploader) Name() string { return "s3" }

// Key is the object key of file in session name.
func (u *S3Uploader) Key(name, file string) string {
	return path.Join(u.prefix, name, file)
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".txt":  "text/tab-separated-values; charset=utf-8",
	".json": "application/json",
	".yaml": "application/yaml",
}

// ContentType picks the upload content type of a session file.
func ContentType(file string) string {
	ext := strings.ToLower(filepath.Ext(file))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Publish uploads the session files concurrently.
func (u *S3Uploader) Publish(ctx context.Context, s SessionSummary) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for _, f := range s.Files {
		g.Go(func() error {
			body, err := os.ReadFile(filepath.Join(s.Dir, f))
			if err != nil {
				return err
			}
			key := u.Key(s.Name, f)
			_, err = u.client.PutObject(gctx, &s3.PutObjectInput{
				Bucket:      aws.String(u.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(body),
				ContentType: aws.String(ContentType(f)),
			})
			if err != nil {
				return fmt.Errorf("put object %s failed: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}
