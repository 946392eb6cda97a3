// Package storefront re-exports the storefront core for applications that
// embed the catalog and admin dashboard.
package storefront

import (
	core "github.com/goliatone/go-storefront/components/storefront"
)

// Dashboard exposes the underlying components/storefront.Dashboard type.
type Dashboard = core.Dashboard

// Options re-export for convenience.
type Options = core.Options

// SessionManager maps login sessions to dashboards.
type SessionManager = core.SessionManager

// SessionManagerOptions re-export.
type SessionManagerOptions = core.SessionManagerOptions

// Catalog is the public storefront.
type Catalog = core.Catalog

// CatalogOptions re-export.
type CatalogOptions = core.CatalogOptions

// Controller renders storefront pages.
type Controller = core.Controller

// ControllerOptions re-export.
type ControllerOptions = core.ControllerOptions

// Config is the application configuration document.
type Config = core.Config

// NewDashboard proxies to the internal constructor.
func NewDashboard(opts Options) *Dashboard {
	return core.NewDashboard(opts)
}

// NewSessionManager proxies to the internal constructor.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	return core.NewSessionManager(opts)
}

// NewCatalog proxies to the internal constructor.
func NewCatalog(opts CatalogOptions) *Catalog {
	return core.NewCatalog(opts)
}

// NewController proxies to the internal constructor.
func NewController(opts ControllerOptions) *Controller {
	return core.NewController(opts)
}

// ReadConfig loads a YAML config file.
func ReadConfig(path string) (*Config, error) {
	return core.ReadConfig(path)
}
