package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

type orderService interface {
	PlaceOrder(ctx context.Context, input storefront.PlaceOrderInput) error
}

// PlaceOrderCommand records a storefront order.
type PlaceOrderCommand struct {
	service   orderService
	telemetry Telemetry
}

// NewPlaceOrderCommand builds the command.
func NewPlaceOrderCommand(service orderService, telemetry Telemetry) *PlaceOrderCommand {
	return &PlaceOrderCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[storefront.PlaceOrderInput] = (*PlaceOrderCommand)(nil)

// Execute places the order.
func (c *PlaceOrderCommand) Execute(ctx context.Context, msg storefront.PlaceOrderInput) error {
	if c.service == nil {
		return errors.New("order command requires service")
	}
	if err := c.service.PlaceOrder(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.place_order", map[string]any{"product_id": msg.ProductID.String()})
	return nil
}

type requestService interface {
	SubmitRequest(ctx context.Context, input storefront.RequestInput) error
}

// SubmitRequestCommand records a customer inquiry.
type SubmitRequestCommand struct {
	service   requestService
	telemetry Telemetry
}

// NewSubmitRequestCommand builds the command.
func NewSubmitRequestCommand(service requestService, telemetry Telemetry) *SubmitRequestCommand {
	return &SubmitRequestCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[storefront.RequestInput] = (*SubmitRequestCommand)(nil)

// Execute submits the request.
func (c *SubmitRequestCommand) Execute(ctx context.Context, msg storefront.RequestInput) error {
	if c.service == nil {
		return errors.New("request command requires service")
	}
	if err := c.service.SubmitRequest(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.submit_request", nil)
	return nil
}

type contactService interface {
	SendMessage(ctx context.Context, input storefront.ContactInput) error
}

// SendMessageCommand records a contact form message.
type SendMessageCommand struct {
	service   contactService
	telemetry Telemetry
}

// NewSendMessageCommand builds the command.
func NewSendMessageCommand(service contactService, telemetry Telemetry) *SendMessageCommand {
	return &SendMessageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[storefront.ContactInput] = (*SendMessageCommand)(nil)

// Execute sends the message.
func (c *SendMessageCommand) Execute(ctx context.Context, msg storefront.ContactInput) error {
	if c.service == nil {
		return errors.New("contact command requires service")
	}
	if err := c.service.SendMessage(ctx, msg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.send_message", nil)
	return nil
}
