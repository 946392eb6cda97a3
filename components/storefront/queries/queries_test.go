package queries

import (
	"context"
	"testing"

	"github.com/goliatone/go-storefront/components/storefront"
)

type stubViewService struct {
	calls   int
	session string
}

func (s *stubViewService) View(ctx context.Context) (storefront.View, error) {
	s.calls++
	s.session, _ = storefront.SessionFromContext(ctx)
	return storefront.View{Authorized: true, Section: storefront.SectionOverview}, nil
}

type stubCatalogService struct {
	listCalls     int
	productCalls  int
	categoryCalls int
	lastQuery     storefront.CatalogQuery
}

func (s *stubCatalogService) ListProducts(_ context.Context, query storefront.CatalogQuery) ([]storefront.Product, error) {
	s.listCalls++
	s.lastQuery = query
	return []storefront.Product{{ID: "5", Name: "Oak Table"}}, nil
}

func (s *stubCatalogService) Product(_ context.Context, id storefront.ID) (storefront.Product, error) {
	s.productCalls++
	return storefront.Product{ID: id, Name: "Oak Table"}, nil
}

func (s *stubCatalogService) Categories(context.Context) ([]storefront.Category, error) {
	s.categoryCalls++
	return []storefront.Category{{Name: "Tables"}}, nil
}

func TestDashboardViewQuery(t *testing.T) {
	service := &stubViewService{}
	query := NewDashboardViewQuery(service)
	view, err := query.Query(context.Background(), ViewInput{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if !view.Authorized {
		t.Fatalf("expected authorized view")
	}
	if service.session != "sess-1" {
		t.Fatalf("expected session sess-1, got %q", service.session)
	}
}

func TestCatalogQuery(t *testing.T) {
	service := &stubCatalogService{}
	query := NewCatalogQuery(service)
	products, err := query.Query(context.Background(), storefront.CatalogQuery{Search: "oak", Sort: storefront.SortPriceAsc})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(products) != 1 || service.lastQuery.Search != "oak" {
		t.Fatalf("unexpected result %v / %v", products, service.lastQuery)
	}
}

func TestProductAndCategoriesQueries(t *testing.T) {
	service := &stubCatalogService{}
	product, err := NewProductQuery(service).Query(context.Background(), ProductInput{ID: "7"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if product.ID != "7" {
		t.Fatalf("expected product 7, got %q", product.ID)
	}
	if _, err := NewCategoriesQuery(service).Query(context.Background(), struct{}{}); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.productCalls != 1 || service.categoryCalls != 1 {
		t.Fatalf("expected one call each, got %d/%d", service.productCalls, service.categoryCalls)
	}
}
