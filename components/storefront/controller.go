package storefront

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/ettle/strcase"
)

// Template names rendered by the controller.
const (
	TemplateDashboard = "dashboard.html"
	TemplateCatalog   = "catalog.html"
	TemplateProduct   = "product.html"
	TemplateContact   = "contact.html"
	TemplateLogin     = "login.html"
)

// ControllerOptions configures the HTML controller.
type ControllerOptions struct {
	Catalog  *Catalog
	Overview *OverviewRenderer
	Renderer Renderer
	// BasePath is the admin dashboard mount point.
	BasePath   string
	LoginPath  string
	LogoutPath string
	EventsPath string
	Title      string
	StoreTitle string
	Locale     string
	Translator TranslationService
}

// Controller turns dashboard and catalog state into rendered pages.
type Controller struct {
	opts ControllerOptions
}

// NewController builds a controller with default paths.
func NewController(opts ControllerOptions) *Controller {
	if opts.Overview == nil {
		opts.Overview = NewOverviewRenderer()
	}
	if opts.BasePath == "" {
		opts.BasePath = "/admin/dashboard"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = DefaultLoginPath
	}
	if opts.LogoutPath == "" {
		opts.LogoutPath = "/logout"
	}
	if opts.EventsPath == "" {
		opts.EventsPath = opts.BasePath + "/ws"
	}
	if opts.Title == "" {
		opts.Title = "Admin Dashboard"
	}
	if opts.StoreTitle == "" {
		opts.StoreTitle = "Our Collection"
	}
	return &Controller{opts: opts}
}

// Catalog returns the public catalog.
func (c *Controller) Catalog() *Catalog { return c.opts.Catalog }

// LoginPath returns the sign-in route.
func (c *Controller) LoginPath() string { return c.opts.LoginPath }

// BasePath returns the admin dashboard mount point.
func (c *Controller) BasePath() string { return c.opts.BasePath }

// LogoutPath returns the sign-out route.
func (c *Controller) LogoutPath() string { return c.opts.LogoutPath }

// EventsPath returns the websocket event stream route.
func (c *Controller) EventsPath() string { return c.opts.EventsPath }

// DashboardPayload builds the template data for the admin dashboard.
func (c *Controller) DashboardPayload(ctx context.Context, d *Dashboard) (map[string]any, error) {
	view := d.View()
	if !view.Authorized {
		return nil, ErrUnauthenticated
	}
	payload := map[string]any{
		"title":          c.opts.Title,
		"locale":         c.opts.Locale,
		"base_path":      c.opts.BasePath,
		"logout_path":    c.opts.LogoutPath,
		"events_path":    c.opts.EventsPath,
		"section":        string(view.Section),
		"sections":       c.sectionsPayload(ctx, view),
		"products":       productsPayload(view.Products),
		"orders":         ordersPayload(view.Orders),
		"requests":       requestsPayload(view.Requests),
		"messages":       messagesPayload(view.Messages),
		"statuses":       statusLabels(view.Statuses),
		"form":           formPayload(view.Form),
		"identity_email": view.Identity.Email,
	}
	mergeNotices(payload, view.Success, view.Error)
	loadErrors := make([]string, 0, len(view.LoadErrors))
	for _, r := range Resources() {
		if msg, ok := view.LoadErrors[r]; ok {
			loadErrors = append(loadErrors, msg)
		}
	}
	payload["load_errors"] = loadErrors

	if view.Section == SectionOverview {
		overview, err := c.opts.Overview.Build(ctx, d.Store())
		if err != nil {
			return nil, err
		}
		payload["chart_html"] = overview.ChartHTML
		payload["status_counts"] = overview.StatusCounts
	}
	return payload, nil
}

// RenderDashboard renders the admin dashboard for d.
func (c *Controller) RenderDashboard(ctx context.Context, d *Dashboard, out io.Writer) error {
	payload, err := c.DashboardPayload(ctx, d)
	if err != nil {
		return err
	}
	return c.render(TemplateDashboard, payload, out)
}

// CatalogPage carries the notices shown on a public page.
type CatalogPage struct {
	Success string
	Error   string
}

// RenderCatalog renders the filtered product listing.
func (c *Controller) RenderCatalog(ctx context.Context, query CatalogQuery, page CatalogPage, out io.Writer) error {
	if c.opts.Catalog == nil {
		return errMissingDataStore
	}
	products, err := c.opts.Catalog.ListProducts(ctx, query)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return err
		}
		page.Error = loadFailureText(ResourceProducts)
	}
	payload := map[string]any{
		"title":    c.opts.StoreTitle,
		"locale":   c.opts.Locale,
		"products": productsPayload(products),
		"query":    queryPayload(query),
		"sorts":    sortOptions(),
	}
	pageNotices(payload, page)
	return c.render(TemplateCatalog, payload, out)
}

// RenderProduct renders a single product page with the order and request forms.
func (c *Controller) RenderProduct(ctx context.Context, id ID, page CatalogPage, out io.Writer) error {
	if c.opts.Catalog == nil {
		return errMissingDataStore
	}
	product, err := c.opts.Catalog.Product(ctx, id)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"locale":  c.opts.Locale,
		"product": productPayload(product),
	}
	pageNotices(payload, page)
	return c.render(TemplateProduct, payload, out)
}

// RenderContact renders the contact form.
func (c *Controller) RenderContact(_ context.Context, page CatalogPage, out io.Writer) error {
	payload := map[string]any{"locale": c.opts.Locale}
	pageNotices(payload, page)
	return c.render(TemplateContact, payload, out)
}

// RenderLogin renders the sign-in form. A failed attempt shows the auth
// service's message.
func (c *Controller) RenderLogin(_ context.Context, email, failure string, out io.Writer) error {
	payload := map[string]any{
		"locale":     c.opts.Locale,
		"login_path": c.opts.LoginPath,
		"email":      email,
	}
	pageNotices(payload, CatalogPage{Error: failure})
	return c.render(TemplateLogin, payload, out)
}

func (c *Controller) render(name string, payload map[string]any, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("storefront: renderer not configured")
	}
	_, err := c.opts.Renderer.Render(name, payload, out)
	return err
}

// SectionLabel returns the localized navigation label of a section.
func (c *Controller) SectionLabel(ctx context.Context, s Section) string {
	return translateOrFallback(ctx, c.opts.Translator, "storefront.section."+string(s), c.opts.Locale, strcase.ToPascal(string(s)), nil)
}

func (c *Controller) sectionsPayload(ctx context.Context, view View) []map[string]any {
	out := make([]map[string]any, 0, len(view.Sections))
	for _, s := range view.Sections {
		entry := map[string]any{
			"name":   string(s),
			"label":  c.SectionLabel(ctx, s),
			"active": s == view.Section,
		}
		if s != SectionOverview {
			entry["count"] = view.Counts[Resource(s)]
		}
		out = append(out, entry)
	}
	return out
}

func mergeNotices(payload map[string]any, success, failure *Notice) {
	if success != nil {
		payload["success"] = success.Message
	}
	if failure != nil {
		payload["error"] = failure.Message
		payload["error_source"] = failure.Source
	}
}

func pageNotices(payload map[string]any, page CatalogPage) {
	if page.Success != "" {
		payload["success"] = page.Success
	}
	if page.Error != "" {
		payload["error"] = page.Error
	}
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func productPayload(p Product) map[string]any {
	out := map[string]any{
		"id":          p.ID.String(),
		"name":        p.Name,
		"price":       formatPrice(p.Price),
		"description": p.Description,
		"image_url":   "",
	}
	if p.ImageURL != nil {
		out["image_url"] = *p.ImageURL
	}
	return out
}

func productsPayload(products []Product) []map[string]any {
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productPayload(p))
	}
	return out
}

func ordersPayload(rows []OrderRow) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, o := range rows {
		out = append(out, map[string]any{
			"id":            o.ID.String(),
			"customer_name": o.CustomerName,
			"product_id":    o.ProductID.String(),
			"product_label": o.ProductLabel,
			"message":       o.Message,
			"status":        string(o.Status),
		})
	}
	return out
}

func requestsPayload(rows []Request) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"id":            r.ID.String(),
			"customer_name": r.CustomerName,
			"message":       r.Message,
		})
	}
	return out
}

func messagesPayload(rows []Message) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, m := range rows {
		out = append(out, map[string]any{
			"id":      m.ID.String(),
			"name":    m.Name,
			"email":   m.Email,
			"message": m.Body,
		})
	}
	return out
}

func statusLabels(statuses []OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func formPayload(f ProductFormView) map[string]any {
	return map[string]any{
		"open":        f.Open,
		"editing":     f.Editing,
		"product_id":  f.ProductID.String(),
		"title":       f.Title,
		"name":        f.Name,
		"price":       f.Price,
		"description": f.Description,
		"has_image":   f.HasImage,
	}
}

func queryPayload(q CatalogQuery) map[string]any {
	out := map[string]any{
		"search":    q.Search,
		"sort":      string(q.Sort),
		"min_price": strconv.Itoa(DefaultMinPrice),
		"max_price": strconv.Itoa(DefaultMaxPrice),
	}
	if q.Sort == "" {
		out["sort"] = string(SortPriceAsc)
	}
	if q.MinPrice != nil {
		out["min_price"] = formatPrice(*q.MinPrice)
	}
	if q.MaxPrice != nil {
		out["max_price"] = formatPrice(*q.MaxPrice)
	}
	return out
}

func sortOptions() []map[string]string {
	return []map[string]string{
		{"value": string(SortPriceAsc), "label": "Price: Low to High"},
		{"value": string(SortPriceDesc), "label": "Price: High to Low"},
		{"value": string(SortNewest), "label": "Newest"},
	}
}
