package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

func TestHandleDelete(t *testing.T) {
	remove := &stubCommander[commands.DeleteRecordInput]{}
	api := &Handlers{Delete: remove}
	req := httptest.NewRequest(http.MethodDelete, "/admin/dashboard/requests/12", nil)
	rec := httptest.NewRecorder()
	api.HandleDelete(rec, req, "requests", "12")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if remove.last.Resource != storefront.ResourceRequests || remove.last.ID != "12" {
		t.Fatalf("expected resource and id propagation, got %+v", remove.last)
	}
}

func TestHandleDeleteUnknownResource(t *testing.T) {
	remove := &stubCommander[commands.DeleteRecordInput]{}
	api := &Handlers{Delete: remove}
	rec := httptest.NewRecorder()
	api.HandleDelete(rec, httptest.NewRequest(http.MethodDelete, "/admin/dashboard/invoices/1", nil), "invoices", "1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if remove.calls != 0 {
		t.Fatalf("expected no command execution")
	}
}

func TestHandleDeleteSurfacesBackendMessage(t *testing.T) {
	remove := &stubCommander[commands.DeleteRecordInput]{err: errors.New("permission denied for table requests")}
	api := &Handlers{Delete: remove}
	rec := httptest.NewRecorder()
	api.HandleDelete(rec, httptest.NewRequest(http.MethodDelete, "/x", nil), "requests", "12")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "permission denied for table requests" {
		t.Fatalf("expected verbatim message, got %q", body["error"])
	}
}

func TestHandleOrderStatusFormPostRedirects(t *testing.T) {
	status := &stubCommander[commands.UpdateOrderStatusInput]{}
	api := &Handlers{Status: status, Redirect: "/admin/dashboard"}
	form := url.Values{"status": {"completed"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/dashboard/orders/3/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	api.HandleOrderStatus(rec, req, "3")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
	}
	if status.last.OrderID != "3" || status.last.Status != "completed" {
		t.Fatalf("unexpected input %+v", status.last)
	}
}

func TestHandleSectionJSON(t *testing.T) {
	section := &stubCommander[commands.SelectSectionInput]{}
	api := &Handlers{Section: section, Redirect: "/admin/dashboard"}
	req := httptest.NewRequest(http.MethodPost, "/admin/dashboard/section", strings.NewReader(`{"section":"orders"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.HandleSection(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if section.last.Section != "orders" {
		t.Fatalf("expected orders, got %q", section.last.Section)
	}
}

func TestHandleSaveProductMultipart(t *testing.T) {
	save := &stubCommander[commands.SaveProductInput]{}
	api := &Handlers{Save: save}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("name", "Oak Table")
	_ = writer.WriteField("price", "450")
	_ = writer.WriteField("description", "Solid oak")
	part, err := writer.CreateFormFile("image", "Oak Table.PNG")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/dashboard/products/save", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	api.HandleSaveProduct(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := save.last.ProductFormInput
	if got.Name != "Oak Table" || got.Price != "450" || got.Description != "Solid oak" {
		t.Fatalf("unexpected fields %+v", got)
	}
	if got.Image == nil || string(got.Image.Data) != "png-bytes" || got.Image.Filename != "Oak Table.PNG" {
		t.Fatalf("expected image payload, got %+v", got.Image)
	}
}

func TestHandleSaveProductJSONKeepsTypedPrice(t *testing.T) {
	save := &stubCommander[commands.SaveProductInput]{}
	api := &Handlers{Save: save}
	req := httptest.NewRequest(http.MethodPost, "/admin/dashboard/products/save", strings.NewReader(`{"name":"Sofa","price":1200.5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.HandleSaveProduct(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if save.last.Price != "1200.5" || save.last.Image != nil {
		t.Fatalf("unexpected input %+v", save.last.ProductFormInput)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{storefront.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", storefront.ErrSessionNotFound), http.StatusUnauthorized},
		{storefront.ErrProductNotFound, http.StatusNotFound},
		{&storefront.ValidationError{Form: "order", Err: errors.New("missing customer_name")}, http.StatusBadRequest},
		{storefront.ErrInvalidOrderStatus, http.StatusBadRequest},
		{storefront.ErrUnknownSection, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("duplicate key value violates unique constraint"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCatalogQueryFromURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?search=oak&min_price=10&max_price=abc&sort=newest", nil)
	q := catalogQuery(req)
	if q.Search != "oak" || q.Sort != storefront.SortNewest {
		t.Fatalf("unexpected query %+v", q)
	}
	if q.MinPrice == nil || *q.MinPrice != 10 {
		t.Fatalf("expected min price 10")
	}
	if q.MaxPrice != nil {
		t.Fatalf("expected invalid max price to be dropped")
	}
}
