package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

type catalogService interface {
	ListProducts(ctx context.Context, query storefront.CatalogQuery) ([]storefront.Product, error)
	Product(ctx context.Context, id storefront.ID) (storefront.Product, error)
	Categories(ctx context.Context) ([]storefront.Category, error)
}

// CatalogQuery lists products matching a search, price range and sort.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[storefront.CatalogQuery, []storefront.Product] = (*CatalogQuery)(nil)

// Query lists matching products.
func (q *CatalogQuery) Query(ctx context.Context, query storefront.CatalogQuery) ([]storefront.Product, error) {
	return q.service.ListProducts(ctx, query)
}

// ProductInput identifies one product.
type ProductInput struct {
	ID storefront.ID `json:"id"`
}

// ProductQuery loads a single product for the detail page.
type ProductQuery struct {
	service catalogService
}

// NewProductQuery builds the query.
func NewProductQuery(service catalogService) *ProductQuery {
	return &ProductQuery{service: service}
}

var _ gocommand.Querier[ProductInput, storefront.Product] = (*ProductQuery)(nil)

// Query loads the product.
func (q *ProductQuery) Query(ctx context.Context, input ProductInput) (storefront.Product, error) {
	return q.service.Product(ctx, input.ID)
}

// CategoriesQuery lists product categories.
type CategoriesQuery struct {
	service catalogService
}

// NewCategoriesQuery builds the query.
func NewCategoriesQuery(service catalogService) *CategoriesQuery {
	return &CategoriesQuery{service: service}
}

var _ gocommand.Querier[struct{}, []storefront.Category] = (*CategoriesQuery)(nil)

// Query lists categories.
func (q *CategoriesQuery) Query(ctx context.Context, _ struct{}) ([]storefront.Category, error) {
	return q.service.Categories(ctx)
}
