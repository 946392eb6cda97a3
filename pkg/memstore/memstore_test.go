package memstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/components/storefront"
)

func TestStoreInsertAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Insert(ctx, "products", storefront.Record{"name": "Oak Table", "price": 450.0}))
	require.NoError(t, store.Insert(ctx, "products", storefront.Record{"name": "Linen Sofa", "price": 1200.0}))

	rows, err := store.SelectAll(ctx, "products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", valueKey(rows[0]["id"]))
	assert.Equal(t, "2", valueKey(rows[1]["id"]))
	assert.NotEmpty(t, rows[0]["created_at"])
}

func TestStoreRowsDecodeIntoEntities(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Insert(ctx, "orders", storefront.Record{
		"customer_name": "Ana",
		"product_id":    storefront.ID("5"),
		"status":        "new",
	}))
	rows, err := store.SelectWhereIn(ctx, "orders", "product_id", []string{"5"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5", valueKey(rows[0]["product_id"]))
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Insert(ctx, "messages", storefront.Record{"name": "Eve"}))
	rows, err := store.SelectAll(ctx, "messages")
	require.NoError(t, err)
	rows[0]["name"] = "Mallory"

	again, err := store.SelectAll(ctx, "messages")
	require.NoError(t, err)
	assert.Equal(t, "Eve", again[0]["name"])
}

func TestStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Insert(ctx, "orders", storefront.Record{"status": "new"}))
	require.NoError(t, store.Insert(ctx, "orders", storefront.Record{"status": "new"}))

	require.NoError(t, store.Update(ctx, "orders", "2", storefront.Record{"status": "completed", "id": 9}))
	rows, err := store.SelectWhereIn(ctx, "orders", "id", []string{"2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "completed", rows[0]["status"])

	require.NoError(t, store.Delete(ctx, "orders", "1"))
	require.NoError(t, store.Delete(ctx, "orders", "404"))
	assert.Equal(t, 1, store.Len("orders"))
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().SelectAll(ctx, "products")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthSignInAndOut(t *testing.T) {
	ctx := context.Background()
	auth := NewAuth(0)
	identity := auth.AddUser("Admin@Example.com", "secret", "admin")

	_, err := auth.SignIn(ctx, "admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := auth.SignIn(ctx, " admin@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, session.Identity.ID)
	assert.Equal(t, "admin@example.com", session.Identity.Email)
	assert.NotEmpty(t, session.AccessToken)
	assert.False(t, session.ExpiresAt.IsZero())
	assert.Equal(t, 1, auth.Active())

	require.NoError(t, auth.SignOut(ctx, session))
	assert.Equal(t, 0, auth.Active())
}

func TestBucketUploadAndServe(t *testing.T) {
	ctx := context.Background()
	bucket := NewBucket("http://localhost:8080/")
	opts := storefront.UploadOptions{ContentType: "image/png", CacheControl: "3600"}

	stored, err := bucket.Upload(ctx, "product-images", "public/1-oak.png", strings.NewReader("png"), opts)
	require.NoError(t, err)
	assert.Equal(t, "public/1-oak.png", stored)
	assert.Equal(t,
		"http://localhost:8080/storage/v1/object/public/product-images/public/1-oak.png",
		bucket.PublicURL("product-images", stored))

	_, err = bucket.Upload(ctx, "product-images", "public/1-oak.png", strings.NewReader("again"), opts)
	assert.ErrorIs(t, err, ErrObjectExists)

	req := httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/product-images/public/1-oak.png", nil)
	rec := httptest.NewRecorder()
	bucket.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png", rec.Body.String())

	rec = httptest.NewRecorder()
	bucket.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/product-images/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
