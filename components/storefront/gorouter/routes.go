package gorouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/components/storefront/commands"
	"github.com/goliatone/go-storefront/components/storefront/httpapi"
	"github.com/goliatone/go-storefront/components/storefront/queries"
)

// SessionHeader carries the opaque session id returned by the login route.
const SessionHeader = "X-Storefront-Session"

// SessionResolver extracts the admin session id from a request.
type SessionResolver func(router.Context) string

// Config wires go-router with the storefront controller, commands and
// event stream.
type Config[T any] struct {
	Router          router.Router[T]
	Controller      *storefront.Controller
	Sessions        *storefront.SessionManager
	API             *httpapi.Handlers
	Broadcast       *storefront.BroadcastHook
	SessionResolver SessionResolver
	BasePath        string
	Routes          RouteConfig
}

// RouteConfig customizes the relative paths used for storefront endpoints.
type RouteConfig struct {
	HTML        string
	State       string
	Section     string
	ProductForm string
	Products    string
	Record      string
	OrderStatus string
	Refresh     string
	WebSocket   string

	Login        string
	Logout       string
	Catalog      string
	Product      string
	PlaceOrder   string
	ProductQuery string
	Contact      string
}

// Register mounts the catalog, login and admin dashboard routes (HTML, JSON,
// WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	if cfg.Sessions == nil {
		return errors.New("gorouter: session manager is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.SessionResolver
	if resolver == nil {
		resolver = defaultSessionResolver
	}
	api := cfg.API
	if api == nil {
		api = httpapi.CommandHandlers(cfg.Sessions, cfg.Controller.Catalog(), nil)
	}

	registerSession(cfg.Router, cfg.Sessions, routes)
	if api.Products != nil {
		registerCatalog(cfg.Router, api, routes)
	}

	group := cfg.Router.Group(base)
	withSession := func(ctx router.Context) (context.Context, bool) {
		id := resolver(ctx)
		if id == "" {
			return nil, false
		}
		if _, err := cfg.Sessions.Get(id); err != nil {
			return nil, false
		}
		return storefront.ContextWithSession(ctx.Context(), id), true
	}

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		reqCtx, ok := withSession(ctx)
		if !ok {
			return redirectToLogin(ctx, cfg.Controller.LoginPath())
		}
		d, err := cfg.Sessions.Dashboard(reqCtx)
		if err != nil {
			return redirectToLogin(ctx, cfg.Controller.LoginPath())
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderDashboard(reqCtx, d, &buf); err != nil {
			if errors.Is(err, storefront.ErrUnauthenticated) {
				return redirectToLogin(ctx, cfg.Controller.LoginPath())
			}
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	registerAPI(group, api, withSession, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

type sessionBinder func(router.Context) (context.Context, bool)

func registerAPI[T any](r router.Router[T], api *httpapi.Handlers, bind sessionBinder, routes RouteConfig) {
	admin := func(status int, run func(ctx context.Context, rc router.Context) error) router.HandlerFunc {
		return router.WrapHandler(func(ctx router.Context) error {
			reqCtx, ok := bind(ctx)
			if !ok {
				return respondError(ctx, http.StatusUnauthorized, storefront.ErrUnauthenticated)
			}
			if err := run(reqCtx, ctx); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(status, map[string]string{"status": "ok"})
		})
	}

	r.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		reqCtx, ok := bind(ctx)
		if !ok {
			return respondError(ctx, http.StatusUnauthorized, storefront.ErrUnauthenticated)
		}
		view, err := api.View.Query(reqCtx, queries.ViewInput{})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	r.Post(routes.Section, admin(http.StatusOK, func(reqCtx context.Context, ctx router.Context) error {
		var payload commands.SelectSectionInput
		if err := decodeBody(ctx, &payload); err != nil {
			return err
		}
		return api.Section.Execute(reqCtx, payload)
	}))

	r.Post(routes.ProductForm, admin(http.StatusOK, func(reqCtx context.Context, ctx router.Context) error {
		var payload commands.ProductFormInput
		if err := decodeBody(ctx, &payload); err != nil {
			return err
		}
		return api.Form.Execute(reqCtx, payload)
	}))

	r.Post(routes.Products, admin(http.StatusCreated, func(reqCtx context.Context, ctx router.Context) error {
		var payload productPayload
		if err := decodeBody(ctx, &payload); err != nil {
			return err
		}
		input, err := payload.input()
		if err != nil {
			return err
		}
		return api.Save.Execute(reqCtx, commands.SaveProductInput{ProductFormInput: input})
	}))

	r.Delete(routes.Record, admin(http.StatusOK, func(reqCtx context.Context, ctx router.Context) error {
		return api.Delete.Execute(reqCtx, commands.DeleteRecordInput{
			Resource: storefront.Resource(ctx.Param("resource")),
			ID:       storefront.ID(ctx.Param("id")),
		})
	}))

	r.Post(routes.OrderStatus, admin(http.StatusOK, func(reqCtx context.Context, ctx router.Context) error {
		var payload commands.UpdateOrderStatusInput
		if err := decodeBody(ctx, &payload); err != nil {
			return err
		}
		payload.OrderID = storefront.ID(ctx.Param("id"))
		return api.Status.Execute(reqCtx, payload)
	}))

	r.Post(routes.Refresh, admin(http.StatusAccepted, func(reqCtx context.Context, ctx router.Context) error {
		var payload commands.RefreshInput
		if err := decodeBody(ctx, &payload); err != nil {
			return err
		}
		return api.Refresh.Execute(reqCtx, payload)
	}))
}

func registerSession[T any](r router.Router[T], sessions *storefront.SessionManager, routes RouteConfig) {
	r.Post(routes.Login, router.WrapHandler(func(ctx router.Context) error {
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		id, _, err := sessions.Login(ctx.Context(), payload.Email, payload.Password)
		if err != nil {
			return respondError(ctx, http.StatusUnauthorized, err)
		}
		ctx.SetHeader(SessionHeader, id)
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok", "session": id})
	}))

	r.Post(routes.Logout, router.WrapHandler(func(ctx router.Context) error {
		id := defaultSessionResolver(ctx)
		if id != "" {
			if err := sessions.Logout(ctx.Context(), id); err != nil {
				return respondError(ctx, http.StatusBadGateway, err)
			}
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}))
}

func registerCatalog[T any](r router.Router[T], api *httpapi.Handlers, routes RouteConfig) {
	r.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		products, err := api.Products.Query(ctx.Context(), catalogQuery(ctx))
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, products)
	}))

	if api.Product != nil {
		r.Get(routes.Product, router.WrapHandler(func(ctx router.Context) error {
			product, err := api.Product.Query(ctx.Context(), queries.ProductInput{ID: storefront.ID(ctx.Param("id"))})
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, product)
		}))
	}

	r.Post(routes.PlaceOrder, router.WrapHandler(func(ctx router.Context) error {
		var payload storefront.PlaceOrderInput
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.ProductID = storefront.ID(ctx.Param("id"))
		if err := api.PlaceOrder.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	r.Post(routes.ProductQuery, router.WrapHandler(func(ctx router.Context) error {
		var payload storefront.RequestInput
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.Request.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	r.Post(routes.Contact, router.WrapHandler(func(ctx router.Context) error {
		var payload storefront.ContactInput
		if err := decodeBody(ctx, &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.Contact.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *storefront.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// productPayload is the JSON product form. The image travels base64 encoded.
type productPayload struct {
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description string          `json:"description"`
	Image       *struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Data        string `json:"data"`
	} `json:"image,omitempty"`
}

func (p productPayload) input() (storefront.ProductFormInput, error) {
	input := storefront.ProductFormInput{
		Name:        p.Name,
		Price:       priceText(p.Price),
		Description: p.Description,
	}
	if p.Image != nil && p.Image.Data != "" {
		data, err := base64.StdEncoding.DecodeString(p.Image.Data)
		if err != nil {
			return input, &storefront.ValidationError{Form: storefront.FormProduct, Err: err}
		}
		input.Image = &storefront.ImageUpload{
			Filename:    p.Image.Filename,
			ContentType: p.Image.ContentType,
			Data:        data,
		}
	}
	return input, nil
}

// priceText keeps the price as typed whether it arrived as a JSON string or
// number.
func priceText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return text
}

func decodeBody(ctx router.Context, dst any) error {
	body := ctx.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &storefront.ValidationError{Form: "request", Err: err}
	}
	return nil
}

func catalogQuery(ctx router.Context) storefront.CatalogQuery {
	return storefront.CatalogQuery{
		Search:   ctx.Query("search"),
		MinPrice: floatQuery(ctx.Query("min_price")),
		MaxPrice: floatQuery(ctx.Query("max_price")),
		Sort:     storefront.CatalogSort(ctx.Query("sort")),
	}
}

func floatQuery(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func defaultSessionResolver(ctx router.Context) string {
	if id, ok := ctx.Locals("session_id").(string); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(ctx.Header(SessionHeader)); id != "" {
		return id
	}
	if auth := ctx.Header("Authorization"); auth != "" {
		if id, ok := strings.CutPrefix(auth, "Session "); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func redirectToLogin(ctx router.Context, loginPath string) error {
	ctx.SetHeader("Location", loginPath)
	return ctx.JSON(http.StatusSeeOther, map[string]string{"redirect": loginPath})
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.State == "" {
		routes.State = "/dashboard/_state"
	}
	if routes.Section == "" {
		routes.Section = "/dashboard/section"
	}
	if routes.ProductForm == "" {
		routes.ProductForm = "/dashboard/products/form"
	}
	if routes.Products == "" {
		routes.Products = "/dashboard/products"
	}
	if routes.Record == "" {
		routes.Record = "/dashboard/:resource/:id"
	}
	if routes.OrderStatus == "" {
		routes.OrderStatus = "/dashboard/orders/:id/status"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/dashboard/refresh"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	if routes.Login == "" {
		routes.Login = storefront.DefaultLoginPath
	}
	if routes.Logout == "" {
		routes.Logout = "/logout"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/products"
	}
	if routes.Product == "" {
		routes.Product = "/products/:id"
	}
	if routes.PlaceOrder == "" {
		routes.PlaceOrder = "/products/:id/orders"
	}
	if routes.ProductQuery == "" {
		routes.ProductQuery = "/products/:id/requests"
	}
	if routes.Contact == "" {
		routes.Contact = "/contact"
	}
	return routes
}
