package memstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-storefront/components/storefront"
)

// ErrObjectExists mirrors the storage API's duplicate upload message.
var ErrObjectExists = errors.New("The resource already exists")

const publicPrefix = "/storage/v1/object/public/"

// Object is a stored upload.
type Object struct {
	ContentType  string
	CacheControl string
	Data         []byte
}

// Bucket is an in-memory storefront.ObjectStorage. It also serves uploaded
// objects under /storage/v1/object/public/ so image URLs resolve.
type Bucket struct {
	baseURL string

	mu      sync.Mutex
	objects map[string]Object
}

// NewBucket returns storage whose public URLs start with baseURL.
func NewBucket(baseURL string) *Bucket {
	return &Bucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: map[string]Object{},
	}
}

var _ storefront.ObjectStorage = (*Bucket)(nil)

// Upload stores body at bucket/path.
func (b *Bucket) Upload(ctx context.Context, bucket, path string, body io.Reader, opts storefront.UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("memstore: read upload: %w", err)
	}
	key := bucket + "/" + strings.TrimLeft(path, "/")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.objects[key]; exists && !opts.Upsert {
		return "", ErrObjectExists
	}
	b.objects[key] = Object{ContentType: opts.ContentType, CacheControl: opts.CacheControl, Data: data}
	return path, nil
}

// PublicURL returns the URL the object is served from.
func (b *Bucket) PublicURL(bucket, storedPath string) string {
	return b.baseURL + publicPrefix + bucket + "/" + strings.TrimLeft(storedPath, "/")
}

// Object returns a stored upload.
func (b *Bucket) Object(bucket, path string) (Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[bucket+"/"+strings.TrimLeft(path, "/")]
	return obj, ok
}

// ServeHTTP serves public objects.
func (b *Bucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.URL.Path, publicPrefix)
	if !ok {
		http.NotFound(w, r)
		return
	}
	b.mu.Lock()
	obj, found := b.objects[key]
	b.mu.Unlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.CacheControl != "" {
		w.Header().Set("Cache-Control", "max-age="+obj.CacheControl)
	}
	_, _ = w.Write(obj.Data)
}
