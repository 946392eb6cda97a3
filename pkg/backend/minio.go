package backend

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/goliatone/go-storefront/components/storefront"
)

type minioAPI interface {
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIOStorage stores product images on a self-hosted S3-compatible server.
type MinIOStorage struct {
	client        minioAPI
	publicBaseURL string
}

var _ storefront.ObjectStorage = (*MinIOStorage)(nil)

// NewMinIOStorage connects to the endpoint URL. The scheme selects TLS.
func NewMinIOStorage(cfg S3Config) (*MinIOStorage, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("backend: minio endpoint %q must be a URL", cfg.Endpoint)
	}
	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: minio client: %w", err)
	}
	public := cfg.PublicBaseURL
	if public == "" {
		public = endpoint.Scheme + "://" + endpoint.Host
	}
	return newMinIOStorage(client, public), nil
}

func newMinIOStorage(client minioAPI, publicBaseURL string) *MinIOStorage {
	return &MinIOStorage{client: client, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload streams the object to bucket/path. Without Upsert an existing key
// is rejected.
func (s *MinIOStorage) Upload(ctx context.Context, bucket, path string, body io.Reader, opts storefront.UploadOptions) (string, error) {
	key := strings.TrimLeft(path, "/")
	if !opts.Upsert {
		_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return "", ErrObjectExists
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return "", fmt.Errorf("backend: stat %s/%s: %w", bucket, key, err)
		}
	}
	put := minio.PutObjectOptions{ContentType: opts.ContentType}
	if opts.CacheControl != "" {
		put.CacheControl = cacheControl(opts.CacheControl)
	}
	if _, err := s.client.PutObject(ctx, bucket, key, body, -1, put); err != nil {
		return "", fmt.Errorf("backend: put %s/%s: %w", bucket, key, err)
	}
	return key, nil
}

// PublicURL joins the public base URL, bucket and key.
func (s *MinIOStorage) PublicURL(bucket, storedPath string) string {
	return s.publicBaseURL + "/" + bucket + "/" + strings.TrimLeft(storedPath, "/")
}
