package goadmin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/pkg/goadmin"
)

type stubMenuBuilder struct {
	items []goadmin.MenuItem
	codes []string
	err   error
}

func (s *stubMenuBuilder) EnsureMenuItem(_ context.Context, code string, item goadmin.MenuItem) error {
	s.codes = append(s.codes, code)
	s.items = append(s.items, item)
	return s.err
}

func TestAdminBootstrapSeedsSectionMenu(t *testing.T) {
	builder := &stubMenuBuilder{}
	controller := storefront.NewController(storefront.ControllerOptions{BasePath: "/admin"})
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Controller:      controller,
		MenuBuilder:     builder,
		SectionIcons:    map[storefront.Section]string{storefront.SectionOrders: "truck"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if len(builder.items) != 1+len(storefront.Sections()) {
		t.Fatalf("expected %d menu items, got %d", 1+len(storefront.Sections()), len(builder.items))
	}
	root := builder.items[0]
	if root.Route != "/admin" || root.Label != "Dashboard" {
		t.Fatalf("unexpected root item %+v", root)
	}
	orders := builder.items[3]
	if orders.Label != "Orders" || orders.Route != "/admin?section=orders" || orders.Icon != "truck" {
		t.Fatalf("unexpected orders item %+v", orders)
	}
	if orders.Parent != "Dashboard" {
		t.Fatalf("expected orders under Dashboard, got %q", orders.Parent)
	}
	for _, code := range builder.codes {
		if code != "admin.main" {
			t.Fatalf("expected default menu code, got %q", code)
		}
	}
	if admin.Controller() != controller {
		t.Fatalf("expected controller")
	}
}

func TestAdminBootstrapJoinsErrors(t *testing.T) {
	builder := &stubMenuBuilder{err: errors.New("menu store down")}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Controller:      storefront.NewController(storefront.ControllerOptions{}),
		MenuBuilder:     builder,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected bootstrap error")
	}
	if len(builder.items) != 1+len(storefront.Sections()) {
		t.Fatalf("expected every item attempted, got %d", len(builder.items))
	}
}

func TestAdminRequiresController(t *testing.T) {
	if _, err := goadmin.New(goadmin.Config{EnableDashboard: true}); err == nil {
		t.Fatalf("expected error without controller")
	}
}

func TestAdminDisabledSkipsBootstrap(t *testing.T) {
	builder := &stubMenuBuilder{}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: false,
		MenuBuilder:     builder,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if len(builder.items) != 0 {
		t.Fatalf("expected 0 calls, got %d", len(builder.items))
	}
	if admin.Controller() != nil {
		t.Fatalf("expected nil controller when disabled")
	}
}
