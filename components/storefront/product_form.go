package storefront

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ettle/strcase"
)

const (
	// DefaultImageBucket is the storage bucket product images are uploaded to.
	DefaultImageBucket = "product-images"
	imagePathPrefix    = "public"
	imageCacheControl  = "3600"
)

// FormMode decides whether a submit inserts or updates. It is either
// Creating or Editing.
type FormMode interface {
	isFormMode()
}

// Creating submits an insert.
type Creating struct{}

// Editing submits an update keyed by the product id.
type Editing struct {
	Product Product
}

func (Creating) isFormMode() {}
func (Editing) isFormMode()  {}

// ImageUpload is the binary payload selected in the form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductFormState is a snapshot of the product form.
type ProductFormState struct {
	Name        string
	Price       string
	Description string
	Image       *ImageUpload
	Mode        FormMode
	Open        bool
}

// EditingProduct returns the edit reference when the form is in edit mode.
func (s ProductFormState) EditingProduct() (Product, bool) {
	if e, ok := s.Mode.(Editing); ok {
		return e.Product, true
	}
	return Product{}, false
}

// ProductFormInput carries the field values typed by the admin.
type ProductFormInput struct {
	Name        string       `json:"name"`
	Price       string       `json:"price"`
	Description string       `json:"description"`
	Image       *ImageUpload `json:"-"`
}

// ProductFormController owns the product form and its insert/update duality.
type ProductFormController struct {
	data      DataStore
	storage   ObjectStorage
	bucket    string
	now       func() time.Time
	telemetry Telemetry

	mu    sync.Mutex
	state ProductFormState
}

// ProductFormOptions configures the controller.
type ProductFormOptions struct {
	Data      DataStore
	Storage   ObjectStorage
	Bucket    string
	Clock     func() time.Time
	Telemetry Telemetry
}

// NewProductFormController builds a closed form in Creating mode.
func NewProductFormController(opts ProductFormOptions) *ProductFormController {
	if opts.Bucket == "" {
		opts.Bucket = DefaultImageBucket
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &ProductFormController{
		data:      opts.Data,
		storage:   opts.Storage,
		bucket:    opts.Bucket,
		now:       opts.Clock,
		telemetry: normalizeTelemetry(opts.Telemetry),
		state:     ProductFormState{Mode: Creating{}},
	}
}

// State returns a copy of the form.
func (c *ProductFormController) State() ProductFormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetFields replaces the typed values and the image selection.
func (c *ProductFormController) SetFields(input ProductFormInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Name = input.Name
	c.state.Price = input.Price
	c.state.Description = input.Description
	c.state.Image = input.Image
}

// OpenCreate opens an empty form for a new product.
func (c *ProductFormController) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ProductFormState{Mode: Creating{}, Open: true}
}

// Edit loads the product into the form and switches to edit mode.
func (c *ProductFormController) Edit(product Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ProductFormState{
		Name:        product.Name,
		Price:       strconv.FormatFloat(product.Price, 'f', -1, 64),
		Description: product.Description,
		Mode:        Editing{Product: product},
		Open:        true,
	}
}

// Cancel drops the edit reference and all fields without writing.
func (c *ProductFormController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ProductFormState{Mode: Creating{}}
}

// Submit uploads the optional image and then writes exactly one insert or
// update. Fields are cleared only when the write succeeds; the caller reloads
// products after a nil return.
func (c *ProductFormController) Submit(ctx context.Context) (string, error) {
	if c.data == nil {
		return "", errMissingDataStore
	}
	state := c.State()

	var imageURL string
	if state.Image != nil {
		url, err := c.uploadImage(ctx, *state.Image)
		if err != nil {
			return "", err
		}
		imageURL = url
	}

	price := parsePrice(state.Price)
	var key string
	switch mode := state.Mode.(type) {
	case Editing:
		patch := Record{
			"name":        state.Name,
			"price":       price,
			"description": state.Description,
		}
		if imageURL != "" {
			patch["image_url"] = imageURL
		}
		if err := c.data.Update(ctx, ResourceProducts.Table(), mode.Product.ID, patch); err != nil {
			return "", err
		}
		key = "storefront.product.updated"
		c.telemetry.Record(ctx, "storefront.product.update", map[string]any{"product_id": mode.Product.ID.String()})
	case Creating, nil:
		record := Record{
			"name":        state.Name,
			"price":       price,
			"description": state.Description,
			"image_url":   nil,
		}
		if imageURL != "" {
			record["image_url"] = imageURL
		}
		if err := c.data.Insert(ctx, ResourceProducts.Table(), record); err != nil {
			return "", err
		}
		key = "storefront.product.added"
		c.telemetry.Record(ctx, "storefront.product.insert", map[string]any{"name": state.Name})
	default:
		return "", fmt.Errorf("storefront: unsupported form mode %T", mode)
	}

	c.mu.Lock()
	c.state = ProductFormState{Mode: Creating{}}
	c.mu.Unlock()
	return key, nil
}

func (c *ProductFormController) uploadImage(ctx context.Context, image ImageUpload) (string, error) {
	if c.storage == nil {
		return "", &UploadError{Err: errMissingStorage}
	}
	objectPath := path.Join(imagePathPrefix, imageObjectName(c.now(), image.Filename))
	stored, err := c.storage.Upload(ctx, c.bucket, objectPath, bytes.NewReader(image.Data), UploadOptions{
		ContentType:  image.ContentType,
		CacheControl: imageCacheControl,
		Upsert:       false,
	})
	if err != nil {
		c.telemetry.Record(ctx, "storefront.product.upload_error", map[string]any{
			"path":  objectPath,
			"error": err.Error(),
		})
		return "", &UploadError{Path: objectPath, Err: err}
	}
	if stored == "" {
		stored = objectPath
	}
	return c.storage.PublicURL(c.bucket, stored), nil
}

// imageObjectName prefixes the file name with the upload time in milliseconds.
func imageObjectName(at time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strcase.ToKebab(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" || stem == "." {
		stem = "image"
	}
	return fmt.Sprintf("%d-%s%s", at.UnixMilli(), stem, ext)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parsePrice reads the longest numeric prefix of the input. Text with no
// numeric prefix yields nil and is left to the backend to accept or reject.
func parsePrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return &v
	}
	prefix := leadingNumber.FindString(text)
	if prefix == "" {
		return nil
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return nil
	}
	return &v
}
