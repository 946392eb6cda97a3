package storefront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const overviewChartHeight = "320px"

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

// Overview summarises the four collections for the landing section.
type Overview struct {
	Counts       map[Resource]int `json:"counts"`
	StatusCounts []StatusCount    `json:"status_counts"`
	ChartHTML    string           `json:"chart_html,omitempty"`
}

// OverviewRenderer draws the orders-by-status chart.
type OverviewRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	translator TranslationService
	locale     string
}

// OverviewOption customizes the renderer.
type OverviewOption func(*OverviewRenderer)

// WithOverviewCache injects the render cache.
func WithOverviewCache(cache RenderCache) OverviewOption {
	return func(r *OverviewRenderer) { r.cache = cache }
}

// WithOverviewTheme sets the chart theme.
func WithOverviewTheme(theme string) OverviewOption {
	return func(r *OverviewRenderer) { r.theme = theme }
}

// WithOverviewAssetsHost points the ECharts runtime at another host.
func WithOverviewAssetsHost(host string) OverviewOption {
	return func(r *OverviewRenderer) { r.assetsHost = host }
}

// WithOverviewTranslator localizes the chart title.
func WithOverviewTranslator(svc TranslationService, locale string) OverviewOption {
	return func(r *OverviewRenderer) {
		r.translator = svc
		r.locale = locale
	}
}

// NewOverviewRenderer builds a renderer with a five minute cache.
func NewOverviewRenderer(options ...OverviewOption) *OverviewRenderer {
	r := &OverviewRenderer{
		cache: NewChartCache(5 * time.Minute),
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Build computes the overview for the dashboard's loaded collections.
func (r *OverviewRenderer) Build(ctx context.Context, store *ResourceStore) (Overview, error) {
	overview := Overview{
		Counts:       store.Counts(),
		StatusCounts: countStatuses(store.Orders().Rows),
	}
	title := translateOrFallback(ctx, r.translator, "storefront.overview.orders_by_status", r.locale, "Orders by status", nil)
	key := hashKey(map[string]any{"title": title, "theme": r.theme, "counts": overview.StatusCounts})
	render := func() (string, error) {
		return r.renderPie(title, overview.StatusCounts)
	}
	var (
		html string
		err  error
	)
	if r.cache != nil {
		html, err = r.cache.GetOrRender(key, render)
	} else {
		html, err = render()
	}
	if err != nil {
		return overview, fmt.Errorf("storefront: render overview chart: %w", err)
	}
	overview.ChartHTML = html
	return overview, nil
}

func countStatuses(orders []Order) []StatusCount {
	counts := make([]StatusCount, 0, 3)
	index := map[OrderStatus]int{}
	for _, s := range OrderStatuses() {
		index[s] = len(counts)
		counts = append(counts, StatusCount{Status: s})
	}
	for _, o := range orders {
		status := o.Status
		if parsed, err := ParseOrderStatus(string(status)); err == nil {
			status = parsed
		}
		i, ok := index[status]
		if !ok {
			i = len(counts)
			index[status] = i
			counts = append(counts, StatusCount{Status: status})
		}
		counts[i].Count++
	}
	return counts
}

func (r *OverviewRenderer) renderPie(title string, counts []StatusCount) (string, error) {
	data := make([]opts.PieData, 0, len(counts))
	for _, c := range counts {
		data = append(data, opts.PieData{Name: string(c.Status), Value: c.Count})
	}
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: overviewChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("orders", data)
	return renderChart(pie)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
