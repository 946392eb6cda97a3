package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-storefront/components/storefront"
)

// Storage is the hosted object storage API.
type Storage struct {
	client *Client
	token  string
}

// Storage returns object storage acting as the token's user.
func (c *Client) Storage(token string) *Storage {
	return &Storage{client: c, token: token}
}

var _ storefront.ObjectStorage = (*Storage)(nil)

// Upload stores body at bucket/path and returns the stored path.
func (s *Storage) Upload(ctx context.Context, bucket, path string, body io.Reader, opts storefront.UploadOptions) (string, error) {
	headers := map[string]string{
		"x-upsert": strconv.FormatBool(opts.Upsert),
	}
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}
	if opts.CacheControl != "" {
		headers["Cache-Control"] = cacheControl(opts.CacheControl)
	}
	path = strings.TrimLeft(path, "/")
	err := s.client.send(ctx, request{
		method:  http.MethodPost,
		path:    "/storage/v1/object/" + bucket + "/" + path,
		token:   s.token,
		body:    body,
		headers: headers,
	}, nil)
	if err != nil {
		return "", err
	}
	return path, nil
}

// PublicURL returns the public address of a stored object.
func (s *Storage) PublicURL(bucket, storedPath string) string {
	return publicObjectURL(s.client.base.String(), bucket, storedPath)
}

func publicObjectURL(base, bucket, storedPath string) string {
	return strings.TrimRight(base, "/") + "/storage/v1/object/public/" + bucket + "/" + strings.TrimLeft(storedPath, "/")
}

// cacheControl accepts either a bare number of seconds or a full directive.
func cacheControl(value string) string {
	if _, err := strconv.Atoi(value); err == nil {
		return fmt.Sprintf("max-age=%s", value)
	}
	return value
}
