package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// ViewInput selects the admin session whose dashboard is read.
type ViewInput struct {
	SessionID string `json:"-"`
}

type viewService interface {
	View(ctx context.Context) (storefront.View, error)
}

// DashboardViewQuery returns a snapshot of an admin session's dashboard.
type DashboardViewQuery struct {
	service viewService
}

// NewDashboardViewQuery builds the query.
func NewDashboardViewQuery(service viewService) *DashboardViewQuery {
	return &DashboardViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, storefront.View] = (*DashboardViewQuery)(nil)

// Query reads the view for the session.
func (q *DashboardViewQuery) Query(ctx context.Context, input ViewInput) (storefront.View, error) {
	if input.SessionID != "" {
		ctx = storefront.ContextWithSession(ctx, input.SessionID)
	}
	return q.service.View(ctx)
}
