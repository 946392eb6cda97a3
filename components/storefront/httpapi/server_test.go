package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/pkg/memstore"
)

type pageRenderer struct {
	mu        sync.Mutex
	templates []string
	payloads  []map[string]any
}

func (r *pageRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, name)
	payload, _ := data.(map[string]any)
	r.payloads = append(r.payloads, payload)
	html := "<html>" + name + "</html>"
	if len(out) > 0 && out[0] != nil {
		_, _ = io.WriteString(out[0], html)
	}
	return html, nil
}

func (r *pageRenderer) last() (string, map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.templates) == 0 {
		return "", nil
	}
	return r.templates[len(r.templates)-1], r.payloads[len(r.payloads)-1]
}

type quietTelemetry struct{}

func (quietTelemetry) Record(context.Context, string, map[string]any) {}

type serverFixture struct {
	data     *memstore.Store
	auth     *memstore.Auth
	renderer *pageRenderer
	manager  *storefront.SessionManager
	server   *httptest.Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		data:     memstore.New(),
		auth:     memstore.NewAuth(0),
		renderer: &pageRenderer{},
	}
	f.auth.AddUser("admin@example.com", "secret", "admin")
	ctx := context.Background()
	require.NoError(t, f.data.Insert(ctx, "products", storefront.Record{"name": "Oak Table", "price": 450.0, "description": "Solid oak"}))

	bucket := memstore.NewBucket("http://localhost")
	f.manager = storefront.NewSessionManager(storefront.SessionManagerOptions{
		Auth:      f.auth,
		Telemetry: quietTelemetry{},
		DashboardOptions: func(storefront.AuthSession) storefront.Options {
			return storefront.Options{Data: f.data, Storage: bucket}
		},
	})
	catalog := storefront.NewCatalog(storefront.CatalogOptions{Data: f.data})
	controller := storefront.NewController(storefront.ControllerOptions{
		Catalog:  catalog,
		Renderer: f.renderer,
		Overview: storefront.NewOverviewRenderer(storefront.WithOverviewCache(nil)),
	})
	srv, err := NewServer(ServerOptions{
		Sessions:   f.manager,
		Controller: controller,
		Handlers:   CommandHandlers(f.manager, catalog, nil),
		Broadcast:  storefront.NewBroadcastHook(),
		Cookies:    sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		Telemetry:  quietTelemetry{},
	})
	require.NoError(t, err)
	f.server = httptest.NewServer(srv)
	t.Cleanup(func() {
		f.server.Close()
		f.manager.Close()
	})
	return f
}

func (f *serverFixture) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *serverFixture) login(t *testing.T, client *http.Client) {
	t.Helper()
	resp, err := client.PostForm(f.server.URL+"/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"secret"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))
}

func doJSON(t *testing.T, client *http.Client, method, target, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func (f *serverFixture) state(t *testing.T, client *http.Client) storefront.View {
	t.Helper()
	resp := doJSON(t, client, http.MethodGet, f.server.URL+"/admin/dashboard/_state", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view storefront.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestAdminRequiresSession(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)

	resp := doJSON(t, client, http.MethodGet, f.server.URL+"/admin/dashboard/_state", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err := client.Get(f.server.URL + "/admin/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)
	resp, err := client.PostForm(f.server.URL+"/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"nope"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	name, payload := f.renderer.last()
	assert.Equal(t, storefront.TemplateLogin, name)
	assert.Equal(t, "admin@example.com", payload["email"])
	assert.Equal(t, 0, f.manager.Len())
}

func TestLoginLoadsDashboard(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)
	f.login(t, client)

	view := f.state(t, client)
	assert.True(t, view.Authorized)
	require.NotNil(t, view.Identity)
	assert.Equal(t, "admin@example.com", view.Identity.Email)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "Oak Table", view.Products[0].Name)

	resp, err := client.Get(f.server.URL + "/admin/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	name, _ := f.renderer.last()
	assert.Equal(t, storefront.TemplateDashboard, name)
}

func TestPublicOrderThenAdminWorkflow(t *testing.T) {
	f := newServerFixture(t)
	shopper := f.client(t)

	resp := doJSON(t, shopper, http.MethodPost, f.server.URL+"/products/1/orders", `{"customer_name":"Ana","message":"Blue please"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, shopper, http.MethodPost, f.server.URL+"/products/1/orders", `{"customer_name":"   "}`)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, f.data.Len("orders"))

	admin := f.client(t)
	f.login(t, admin)
	view := f.state(t, admin)
	require.Len(t, view.Orders, 1)
	assert.Equal(t, "Oak Table", view.Orders[0].ProductLabel)
	assert.Equal(t, storefront.OrderStatusNew, view.Orders[0].Status)

	form := url.Values{"status": {"completed"}}
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/admin/dashboard/orders/1/status", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = admin.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	view = f.state(t, admin)
	assert.Equal(t, storefront.OrderStatusCompleted, view.Orders[0].Status)
	require.NotNil(t, view.Success)
	assert.Equal(t, "Order status updated successfully!", view.Success.Message)

	resp = doJSON(t, admin, http.MethodDelete, f.server.URL+"/admin/dashboard/orders/1", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, f.state(t, admin).Orders)
}

func TestPublicContactFormRendersNotice(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)
	resp, err := client.PostForm(f.server.URL+"/contact", url.Values{
		"name":    {"Eve"},
		"email":   {"eve@example.com"},
		"message": {"Opening hours?"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	name, payload := f.renderer.last()
	assert.Equal(t, storefront.TemplateContact, name)
	assert.Equal(t, "Message sent successfully! Thank you for contacting us.", payload["success"])
	assert.Equal(t, 1, f.data.Len("messages"))

	resp, err = client.PostForm(f.server.URL+"/contact", url.Values{"name": {"Eve"}, "email": {"not-an-email"}, "message": {"Hi"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, f.data.Len("messages"))
}

func TestUnknownProductIs404(t *testing.T) {
	f := newServerFixture(t)
	resp, err := f.client(t).Get(f.server.URL + "/products/404")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)
	f.login(t, client)
	require.Equal(t, 1, f.manager.Len())

	resp, err := client.PostForm(f.server.URL+"/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, f.manager.Len())
	assert.Equal(t, 0, f.auth.Active())

	resp = doJSON(t, client, http.MethodGet, f.server.URL+"/admin/dashboard/_state", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCategoriesJSON(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.data.Insert(context.Background(), "categories", storefront.Record{"name": "Living room"}))

	resp := doJSON(t, f.client(t), http.MethodGet, f.server.URL+"/categories", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []storefront.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "Living room", categories[0].Name)
}

func TestDashboardSectionDeepLink(t *testing.T) {
	f := newServerFixture(t)
	client := f.client(t)
	f.login(t, client)

	resp, err := client.Get(f.server.URL + "/admin/dashboard?section=orders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, storefront.SectionOrders, f.state(t, client).Section)

	resp, err = client.Get(f.server.URL + "/admin/dashboard?section=attic")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
