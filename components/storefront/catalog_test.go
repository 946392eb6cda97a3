package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogFixture() (*Catalog, *fakeDataStore, *recordingRefresh) {
	data := newFakeDataStore()
	data.seed("products",
		Record{"id": 1, "name": "Oak Table", "price": 450.0, "description": ""},
		Record{"id": 2, "name": "Oak Shelf", "price": 120.0, "description": ""},
		Record{"id": 3, "name": "Linen Sofa", "price": 1200.0, "description": ""},
		Record{"id": 10, "name": "Marble Island", "price": 150000.0, "description": ""},
	)
	refresh := &recordingRefresh{}
	return NewCatalog(CatalogOptions{Data: data, RefreshHook: refresh}), data, refresh
}

func productNames(products []Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestListProductsDefaults(t *testing.T) {
	catalog, _, _ := catalogFixture()

	products, err := catalog.ListProducts(context.Background(), CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Oak Shelf", "Oak Table", "Linen Sofa"}, productNames(products))
}

func TestListProductsSearchRangeAndSort(t *testing.T) {
	catalog, _, _ := catalogFixture()
	ctx := context.Background()
	lo, hi := 100.0, 500.0

	products, err := catalog.ListProducts(ctx, CatalogQuery{Search: "  OAK ", Sort: SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Oak Table", "Oak Shelf"}, productNames(products))

	products, err = catalog.ListProducts(ctx, CatalogQuery{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	assert.Equal(t, []string{"Oak Shelf", "Oak Table"}, productNames(products))

	unbounded := 1e9
	products, err = catalog.ListProducts(ctx, CatalogQuery{MaxPrice: &unbounded, Sort: SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Marble Island", "Linen Sofa", "Oak Shelf", "Oak Table"}, productNames(products))
}

func TestListProductsLoadFailure(t *testing.T) {
	catalog, data, _ := catalogFixture()
	data.selectErr["products"] = errors.New("permission denied for table products")

	_, err := catalog.ListProducts(context.Background(), CatalogQuery{})
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ResourceProducts, loadErr.Resource)
}

func TestProductLookup(t *testing.T) {
	catalog, _, _ := catalogFixture()

	p, err := catalog.Product(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Linen Sofa", p.Name)

	_, err = catalog.Product(context.Background(), "404")
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = catalog.Product(context.Background(), "")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestPlaceOrderInsertsNewOrder(t *testing.T) {
	catalog, data, refresh := catalogFixture()

	err := catalog.PlaceOrder(context.Background(), PlaceOrderInput{ProductID: "3", CustomerName: "Ana"})
	require.NoError(t, err)

	require.Len(t, data.inserts, 1)
	assert.Equal(t, "new", data.inserts[0]["status"])
	assert.Equal(t, ID("3"), data.inserts[0]["product_id"])
	assert.Equal(t, "", data.inserts[0]["message"])
	assert.Equal(t, []Event{{Resource: ResourceOrders, Reason: "insert"}}, refresh.events)
}

func TestPublicFormsRejectInvalidPayloads(t *testing.T) {
	catalog, data, _ := catalogFixture()
	ctx := context.Background()

	var validationErr *ValidationError
	err := catalog.PlaceOrder(ctx, PlaceOrderInput{ProductID: "3", CustomerName: "   "})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, FormOrder, validationErr.Form)

	err = catalog.SubmitRequest(ctx, RequestInput{CustomerName: "Ben"})
	require.ErrorAs(t, err, &validationErr)

	err = catalog.SendMessage(ctx, ContactInput{Name: "Eve", Email: "not-an-email", Message: "Hi"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, FormContact, validationErr.Form)

	assert.Empty(t, data.inserts)
}

func TestSendMessageAndRequest(t *testing.T) {
	catalog, data, _ := catalogFixture()
	ctx := context.Background()

	require.NoError(t, catalog.SendMessage(ctx, ContactInput{Name: "Eve", Email: "eve@example.com", Message: "Opening hours?"}))
	require.NoError(t, catalog.SubmitRequest(ctx, RequestInput{CustomerName: "Ben", Message: "Custom wardrobe"}))

	require.Len(t, data.inserts, 2)
	assert.Equal(t, Record{"name": "Eve", "email": "eve@example.com", "message": "Opening hours?"}, data.inserts[0])
	assert.Equal(t, Record{"customer_name": "Ben", "message": "Custom wardrobe"}, data.inserts[1])
}

func TestInsertFailureSurfacesBackendMessage(t *testing.T) {
	catalog, data, refresh := catalogFixture()
	data.insertErr = errors.New(`new row violates row-level security policy for table "messages"`)

	err := catalog.SendMessage(context.Background(), ContactInput{Name: "Eve", Email: "eve@example.com", Message: "Hi"})
	require.EqualError(t, err, `new row violates row-level security policy for table "messages"`)
	assert.Empty(t, refresh.events)
}

func TestCategoriesSorted(t *testing.T) {
	catalog, data, _ := catalogFixture()
	data.seed("categories", Record{"id": 10, "name": "Outdoor"}, Record{"id": 2, "name": "Living"})

	categories, err := catalog.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Living", categories[0].Name)
}
