package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/goliatone/go-storefront/components/storefront"
)

// ErrObjectExists is returned when a non-upsert upload targets a taken key.
var ErrObjectExists = errors.New("The resource already exists")

// S3Config configures an S3-compatible image store.
type S3Config struct {
	Region          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type s3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage stores product images in an S3 bucket.
type S3Storage struct {
	client        s3API
	publicBaseURL string
}

var _ storefront.ObjectStorage = (*S3Storage)(nil)

// NewS3Storage loads the AWS config for the region. Static keys, when set,
// take precedence over the default credential chain.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("backend: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newS3Storage(client, cfg.PublicBaseURL), nil
}

func newS3Storage(client s3API, publicBaseURL string) *S3Storage {
	return &S3Storage{client: client, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload puts the object under bucket/path. Without Upsert an existing key
// is rejected.
func (s *S3Storage) Upload(ctx context.Context, bucket, path string, body io.Reader, opts storefront.UploadOptions) (string, error) {
	key := strings.TrimLeft(path, "/")
	if !opts.Upsert {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err == nil {
			return "", ErrObjectExists
		}
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("backend: head %s/%s: %w", bucket, key, err)
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("backend: read upload: %w", err)
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		in.CacheControl = aws.String(cacheControl(opts.CacheControl))
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("backend: put %s/%s: %w", bucket, key, err)
	}
	return key, nil
}

// PublicURL joins the public base URL, bucket and key.
func (s *S3Storage) PublicURL(bucket, storedPath string) string {
	return s.publicBaseURL + "/" + bucket + "/" + strings.TrimLeft(storedPath, "/")
}
