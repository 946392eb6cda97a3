package commands

import (
	"context"

	"github.com/goliatone/go-storefront/components/storefront"
)

// withSession binds the admin session carried by a message to ctx. An empty
// id keeps whatever session the transport already attached.
func withSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return storefront.ContextWithSession(ctx, sessionID)
}
