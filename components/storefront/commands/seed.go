package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-storefront/components/storefront"
)

// SeedCatalogInput points at a seed document, either in memory or on disk.
type SeedCatalogInput struct {
	Path     string
	Document *storefront.SeedDocument
}

// SeedCatalogCommand inserts categories and products from a seed document.
type SeedCatalogCommand struct {
	data      storefront.DataStore
	validator storefront.FormValidator
	telemetry Telemetry
}

// NewSeedCatalogCommand builds the command. A nil validator uses the
// built-in product schema.
func NewSeedCatalogCommand(data storefront.DataStore, validator storefront.FormValidator, telemetry Telemetry) *SeedCatalogCommand {
	if validator == nil {
		validator = storefront.NewJSONSchemaValidator(nil)
	}
	return &SeedCatalogCommand{data: data, validator: validator, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedCatalogInput] = (*SeedCatalogCommand)(nil)

// Execute seeds the backend.
func (c *SeedCatalogCommand) Execute(ctx context.Context, msg SeedCatalogInput) error {
	if c.data == nil {
		return errors.New("seed command requires data store")
	}
	doc := msg.Document
	if doc == nil {
		if msg.Path == "" {
			return errors.New("seed command requires a document or path")
		}
		loaded, err := storefront.ReadSeed(msg.Path)
		if err != nil {
			return err
		}
		doc = loaded
	}
	result, err := storefront.Seed(ctx, c.data, c.validator, doc)
	c.telemetry.Record(ctx, "storefront.command.seed", map[string]any{
		"categories": result.Categories,
		"products":   result.Products,
	})
	return err
}
