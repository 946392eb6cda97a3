package goadmin

import (
	"context"
	"errors"
	"net/url"

	"github.com/goliatone/go-storefront/components/storefront"
)

// MenuBuilder ensures dashboard entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures dashboard link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
	Parent   string
}

// Config wires the storefront dashboard into an admin shell.
type Config struct {
	EnableDashboard bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Controller      *storefront.Controller
	DefaultMenuItem MenuItem
	// SectionIcons overrides the icon per dashboard section.
	SectionIcons map[storefront.Section]string
}

var defaultSectionIcons = map[storefront.Section]string{
	storefront.SectionOverview: "chart-bar",
	storefront.SectionProducts: "sofa",
	storefront.SectionOrders:   "shopping-cart",
	storefront.SectionRequests: "help-circle",
	storefront.SectionMessages: "mail",
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed dashboard menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableDashboard && cfg.Controller == nil {
		return nil, errors.New("goadmin: storefront controller is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Dashboard"
	}
	if cfg.DefaultMenuItem.Route == "" && cfg.Controller != nil {
		cfg.DefaultMenuItem.Route = cfg.Controller.BasePath()
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "home"
	}
	return &Admin{cfg: cfg}, nil
}

// Controller exposes the configured controller when enabled.
func (a *Admin) Controller() *storefront.Controller {
	if !a.cfg.EnableDashboard {
		return nil
	}
	return a.cfg.Controller
}

// MenuItems returns the dashboard entry followed by one child per section.
func (a *Admin) MenuItems(ctx context.Context) []MenuItem {
	if !a.cfg.EnableDashboard {
		return nil
	}
	root := a.cfg.DefaultMenuItem
	items := []MenuItem{root}
	for i, section := range storefront.Sections() {
		icon := a.cfg.SectionIcons[section]
		if icon == "" {
			icon = defaultSectionIcons[section]
		}
		items = append(items, MenuItem{
			Label:    a.cfg.Controller.SectionLabel(ctx, section),
			Route:    a.cfg.Controller.BasePath() + "?" + url.Values{"section": {string(section)}}.Encode(),
			Icon:     icon,
			Position: root.Position*100 + i + 1,
			Parent:   root.Label,
		})
	}
	return items
}

// Bootstrap seeds menu entries when dashboard support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableDashboard || a.cfg.MenuBuilder == nil {
		return nil
	}
	var errs []error
	for _, item := range a.MenuItems(ctx) {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
