package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// DeleteRecordInput identifies the row to remove.
type DeleteRecordInput struct {
	SessionID string              `json:"-"`
	Resource  storefront.Resource `json:"resource"`
	ID        storefront.ID       `json:"id"`
}

type deleteService interface {
	Delete(ctx context.Context, resource storefront.Resource, id storefront.ID) error
}

// DeleteRecordCommand removes a product, order, request or message.
type DeleteRecordCommand struct {
	service   deleteService
	telemetry Telemetry
}

// NewDeleteRecordCommand builds the command.
func NewDeleteRecordCommand(service deleteService, telemetry Telemetry) *DeleteRecordCommand {
	return &DeleteRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteRecordInput] = (*DeleteRecordCommand)(nil)

// Execute deletes the record.
func (c *DeleteRecordCommand) Execute(ctx context.Context, msg DeleteRecordInput) error {
	if c.service == nil {
		return errors.New("delete command requires service")
	}
	if !msg.Resource.Valid() {
		return errors.New("delete command requires a known resource")
	}
	if msg.ID.IsZero() {
		return errors.New("delete command requires id")
	}
	ctx = withSession(ctx, msg.SessionID)
	if err := c.service.Delete(ctx, msg.Resource, msg.ID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.delete", map[string]any{
		"resource": string(msg.Resource),
		"id":       msg.ID.String(),
	})
	return nil
}
