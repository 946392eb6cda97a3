package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshInput reloads collections or clears banners for a session.
type RefreshInput struct {
	SessionID string `json:"-"`
	// DismissOnly clears notices without reloading.
	DismissOnly bool `json:"dismiss_only"`
}

type refreshService interface {
	Refresh(ctx context.Context) error
	DismissNotices(ctx context.Context) error
}

// RefreshCommand reloads every collection.
type RefreshCommand struct {
	service refreshService
}

// NewRefreshCommand builds the command.
func NewRefreshCommand(service refreshService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

var _ gocommand.Commander[RefreshInput] = (*RefreshCommand)(nil)

// Execute reloads or dismisses.
func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	ctx = withSession(ctx, msg.SessionID)
	if msg.DismissOnly {
		return c.service.DismissNotices(ctx)
	}
	return c.service.Refresh(ctx)
}
