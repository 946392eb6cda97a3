package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// Product form actions.
const (
	FormActionOpen   = "open"
	FormActionEdit   = "edit"
	FormActionCancel = "cancel"
)

// ProductFormInput opens, edits or cancels the product form.
type ProductFormInput struct {
	SessionID string        `json:"-"`
	Action    string        `json:"action"`
	ProductID storefront.ID `json:"product_id,omitempty"`
}

type productFormService interface {
	OpenProductForm(ctx context.Context) error
	EditProduct(ctx context.Context, id storefront.ID) error
	CancelProductForm(ctx context.Context) error
}

// ProductFormCommand drives the product form mode.
type ProductFormCommand struct {
	service productFormService
}

// NewProductFormCommand builds the command.
func NewProductFormCommand(service productFormService) *ProductFormCommand {
	return &ProductFormCommand{service: service}
}

var _ gocommand.Commander[ProductFormInput] = (*ProductFormCommand)(nil)

// Execute applies the form action.
func (c *ProductFormCommand) Execute(ctx context.Context, msg ProductFormInput) error {
	if c.service == nil {
		return errors.New("product form command requires service")
	}
	ctx = withSession(ctx, msg.SessionID)
	switch msg.Action {
	case FormActionOpen:
		return c.service.OpenProductForm(ctx)
	case FormActionEdit:
		if msg.ProductID.IsZero() {
			return errors.New("product form command requires product id to edit")
		}
		return c.service.EditProduct(ctx, msg.ProductID)
	case FormActionCancel:
		return c.service.CancelProductForm(ctx)
	}
	return fmt.Errorf("product form command: unknown action %q", msg.Action)
}

// SaveProductInput carries the submitted form fields.
type SaveProductInput struct {
	SessionID string `json:"-"`
	storefront.ProductFormInput
}

type saveProductService interface {
	SaveProduct(ctx context.Context, input storefront.ProductFormInput) error
}

// SaveProductCommand submits the form as an insert or update.
type SaveProductCommand struct {
	service   saveProductService
	telemetry Telemetry
}

// NewSaveProductCommand builds the command.
func NewSaveProductCommand(service saveProductService, telemetry Telemetry) *SaveProductCommand {
	return &SaveProductCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveProductInput] = (*SaveProductCommand)(nil)

// Execute saves the product.
func (c *SaveProductCommand) Execute(ctx context.Context, msg SaveProductInput) error {
	if c.service == nil {
		return errors.New("save product command requires service")
	}
	ctx = withSession(ctx, msg.SessionID)
	if err := c.service.SaveProduct(ctx, msg.ProductFormInput); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.save_product", map[string]any{
		"name":      msg.Name,
		"has_image": msg.Image != nil,
	})
	return nil
}
