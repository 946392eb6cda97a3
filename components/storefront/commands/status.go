package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// UpdateOrderStatusInput carries the new status for an order.
type UpdateOrderStatusInput struct {
	SessionID string        `json:"-"`
	OrderID   storefront.ID `json:"order_id"`
	Status    string        `json:"status"`
}

type statusService interface {
	UpdateOrderStatus(ctx context.Context, id storefront.ID, status storefront.OrderStatus) error
}

// UpdateOrderStatusCommand changes an order's status.
type UpdateOrderStatusCommand struct {
	service   statusService
	telemetry Telemetry
}

// NewUpdateOrderStatusCommand builds the command.
func NewUpdateOrderStatusCommand(service statusService, telemetry Telemetry) *UpdateOrderStatusCommand {
	return &UpdateOrderStatusCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateOrderStatusInput] = (*UpdateOrderStatusCommand)(nil)

// Execute validates the status and applies it.
func (c *UpdateOrderStatusCommand) Execute(ctx context.Context, msg UpdateOrderStatusInput) error {
	if c.service == nil {
		return errors.New("status command requires service")
	}
	if msg.OrderID.IsZero() {
		return errors.New("status command requires order id")
	}
	status, err := storefront.ParseOrderStatus(msg.Status)
	if err != nil {
		return err
	}
	ctx = withSession(ctx, msg.SessionID)
	if err := c.service.UpdateOrderStatus(ctx, msg.OrderID, status); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.order_status", map[string]any{
		"order_id": msg.OrderID.String(),
		"status":   string(status),
	})
	return nil
}
