package storefront

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-storefront/pkg/activity"
)

// Catalog price range bounds used when a query leaves them unset.
const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 100000
)

// CatalogSort orders the public product listing.
type CatalogSort string

const (
	SortPriceAsc  CatalogSort = "price-asc"
	SortPriceDesc CatalogSort = "price-desc"
	SortNewest    CatalogSort = "newest"
)

// CatalogQuery filters the public product listing. Nil bounds fall back to
// DefaultMinPrice and DefaultMaxPrice.
type CatalogQuery struct {
	Search   string      `json:"search"`
	MinPrice *float64    `json:"min_price,omitempty"`
	MaxPrice *float64    `json:"max_price,omitempty"`
	Sort     CatalogSort `json:"sort"`
}

// PlaceOrderInput is submitted from the product detail page.
type PlaceOrderInput struct {
	ProductID    ID     `json:"product_id"`
	CustomerName string `json:"customer_name"`
	Message      string `json:"message"`
}

// RequestInput is a free-form inquiry from the product detail page.
type RequestInput struct {
	CustomerName string `json:"customer_name"`
	Message      string `json:"message"`
}

// ContactInput is the contact page form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CatalogOptions configures the public catalog.
type CatalogOptions struct {
	Data           DataStore
	Validator      FormValidator
	RefreshHook    RefreshHook
	Telemetry      Telemetry
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
}

// Catalog serves the anonymous storefront: product browsing and the order,
// request and contact forms.
type Catalog struct {
	data      DataStore
	validator FormValidator
	refresh   RefreshHook
	telemetry Telemetry
	activity  *activity.Emitter
}

// NewCatalog builds a catalog. Without a validator the built-in form schemas
// are used.
func NewCatalog(opts CatalogOptions) *Catalog {
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator(nil)
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	return &Catalog{
		data:      opts.Data,
		validator: opts.Validator,
		refresh:   opts.RefreshHook,
		telemetry: normalizeTelemetry(opts.Telemetry),
		activity:  activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// ListProducts returns the products matching the query.
func (c *Catalog) ListProducts(ctx context.Context, query CatalogQuery) ([]Product, error) {
	if c.data == nil {
		return nil, errMissingDataStore
	}
	records, err := c.data.SelectAll(ctx, ResourceProducts.Table())
	if err != nil {
		return nil, &LoadError{Resource: ResourceProducts, Err: err}
	}
	products, err := decodeRows[Product](records)
	if err != nil {
		return nil, &LoadError{Resource: ResourceProducts, Err: err}
	}
	return FilterProducts(products, query), nil
}

// FilterProducts applies the search, price range and sort of query.
func FilterProducts(products []Product, query CatalogQuery) []Product {
	minPrice, maxPrice := float64(DefaultMinPrice), float64(DefaultMaxPrice)
	if query.MinPrice != nil {
		minPrice = *query.MinPrice
	}
	if query.MaxPrice != nil {
		maxPrice = *query.MaxPrice
	}
	needle := strings.ToLower(strings.TrimSpace(query.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if p.Price < minPrice || p.Price > maxPrice {
			continue
		}
		out = append(out, p)
	}

	switch query.Sort {
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortNewest:
		slices.SortStableFunc(out, func(a, b Product) int { return compareIDs(b.ID, a.ID) })
	default:
		slices.SortStableFunc(out, func(a, b Product) int { return cmp.Compare(a.Price, b.Price) })
	}
	return out
}

// Product returns a single product or ErrProductNotFound.
func (c *Catalog) Product(ctx context.Context, id ID) (Product, error) {
	if c.data == nil {
		return Product{}, errMissingDataStore
	}
	if id.IsZero() {
		return Product{}, ErrProductNotFound
	}
	records, err := c.data.SelectWhereIn(ctx, ResourceProducts.Table(), "id", []string{id.String()})
	if err != nil {
		return Product{}, fmt.Errorf("storefront: fetch product %s: %w", id, err)
	}
	products, err := decodeRows[Product](records)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// PlaceOrder records a purchase intent with status new.
func (c *Catalog) PlaceOrder(ctx context.Context, input PlaceOrderInput) error {
	if err := c.validator.Validate(FormOrder, input); err != nil {
		return err
	}
	record := Record{
		"customer_name": input.CustomerName,
		"product_id":    input.ProductID,
		"message":       input.Message,
		"status":        string(OrderStatusNew),
	}
	return c.insert(ctx, ResourceOrders, record, "storefront.orders.placed", map[string]any{
		"product_id": input.ProductID.String(),
	})
}

// SubmitRequest records a customer inquiry.
func (c *Catalog) SubmitRequest(ctx context.Context, input RequestInput) error {
	if err := c.validator.Validate(FormRequest, input); err != nil {
		return err
	}
	record := Record{
		"customer_name": input.CustomerName,
		"message":       input.Message,
	}
	return c.insert(ctx, ResourceRequests, record, "storefront.requests.received", nil)
}

// SendMessage records a contact form submission.
func (c *Catalog) SendMessage(ctx context.Context, input ContactInput) error {
	if err := c.validator.Validate(FormContact, input); err != nil {
		return err
	}
	record := Record{
		"name":    input.Name,
		"email":   input.Email,
		"message": input.Message,
	}
	return c.insert(ctx, ResourceMessages, record, "storefront.messages.sent", nil)
}

// Categories returns the read-only category reference list.
func (c *Catalog) Categories(ctx context.Context) ([]Category, error) {
	if c.data == nil {
		return nil, errMissingDataStore
	}
	records, err := c.data.SelectAll(ctx, tableCategories)
	if err != nil {
		return nil, fmt.Errorf("storefront: load categories: %w", err)
	}
	categories, err := decodeRows[Category](records)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(categories, func(a, b Category) int { return compareIDs(a.ID, b.ID) })
	return categories, nil
}

func (c *Catalog) insert(ctx context.Context, resource Resource, record Record, verb string, meta map[string]any) error {
	if c.data == nil {
		return errMissingDataStore
	}
	if err := c.data.Insert(ctx, resource.Table(), record); err != nil {
		c.telemetry.Record(ctx, "storefront.catalog.insert_error", map[string]any{
			"resource": string(resource),
			"error":    err.Error(),
		})
		return err
	}
	c.telemetry.Record(ctx, "storefront.catalog.insert", map[string]any{"resource": string(resource)})
	if c.activity.Enabled() {
		if err := c.activity.Emit(ctx, activity.Event{
			Verb:       verb,
			ObjectType: string(resource),
			Metadata:   meta,
		}); err != nil {
			c.telemetry.Record(ctx, "storefront.activity.error", map[string]any{"verb": verb, "error": err.Error()})
		}
	}
	if err := c.refresh.CollectionUpdated(ctx, Event{Resource: resource, Reason: "insert"}); err != nil {
		c.telemetry.Record(ctx, "storefront.refresh.error", map[string]any{"resource": string(resource), "error": err.Error()})
	}
	return nil
}
