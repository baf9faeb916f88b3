package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/commander/core/audit"
)

var _ audit.Store = (*AuditArchive)(nil)

// S3Client defines the S3 operations used by AuditArchive.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// AuditArchive writes every audit document as a JSON object, keyed by day:
// {prefix}/{yyyy}/{mm}/{dd}/{id}.json.
type AuditArchive struct {
	client        S3Client
	bucket        string
	prefix        string
	uploadTimeout time.Duration
}

// Option configures New.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	s3Client      S3Client
	configOptions []func(*config.LoadOptions) error
}

// WithS3Client sets a pre-configured client.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets the HTTP client used for S3 requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithConfigOption adds an AWS config load option.
func WithConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, option)
	}
}

// New creates an archive. Without static credentials the default AWS
// credential chain is used.
func New(ctx context.Context, cfg Config, opts ...Option) (*AuditArchive, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: bucket and region are required", ErrInvalidConfig)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &AuditArchive{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		uploadTimeout: cfg.UploadTimeout,
	}, nil
}

// Persist uploads doc.
func (a *AuditArchive) Persist(ctx context.Context, doc *audit.Document) error {
	if doc == nil {
		return ErrDocumentNil
	}
	if a.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.uploadTimeout)
		defer cancel()
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode audit document: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(doc)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return classifyS3Error(err, "put")
}

// Key returns the object key of doc.
func (a *AuditArchive) Key(doc *audit.Document) string {
	created := doc.CreatedAt.UTC()
	return path.Join(a.prefix, created.Format("2006/01/02"), doc.ID+".json")
}

// Healthcheck verifies the bucket is reachable.
func (a *AuditArchive) Healthcheck(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return classifyS3Error(err, "head bucket")
}
