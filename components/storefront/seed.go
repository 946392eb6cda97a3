package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedDocument lists catalog rows to insert into an empty backend.
type SeedDocument struct {
	Version    string         `yaml:"version"`
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
}

// SeedCategory is one category row.
type SeedCategory struct {
	Name string `yaml:"name" json:"name"`
}

// SeedProduct is one product row.
type SeedProduct struct {
	Name        string  `yaml:"name" json:"name"`
	Price       float64 `yaml:"price" json:"price"`
	Description string  `yaml:"description" json:"description"`
	ImageURL    *string `yaml:"image_url" json:"image_url"`
}

// ReadSeed loads a seed file from disk.
func ReadSeed(path string) (*SeedDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("storefront: open seed %s: %w", path, err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// DecodeSeed parses a YAML seed document.
func DecodeSeed(r io.Reader) (*SeedDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc SeedDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("storefront: seed is empty")
		}
		return nil, fmt.Errorf("storefront: parse seed: %w", err)
	}
	if doc.Version == "" {
		doc.Version = configVersionV1
	}
	if doc.Version != configVersionV1 {
		return nil, fmt.Errorf("storefront: unsupported seed version %q", doc.Version)
	}
	return &doc, nil
}

// SeedResult counts inserted rows.
type SeedResult struct {
	Categories int
	Products   int
}

// Seed validates every product first and then inserts categories and
// products in document order. Nothing is written when a product is invalid.
func Seed(ctx context.Context, data DataStore, validator FormValidator, doc *SeedDocument) (SeedResult, error) {
	var result SeedResult
	if data == nil {
		return result, errMissingDataStore
	}
	if doc == nil {
		return result, fmt.Errorf("storefront: seed document is nil")
	}
	if validator == nil {
		validator = noopFormValidator{}
	}
	for i, p := range doc.Products {
		if err := validator.Validate(FormProduct, p); err != nil {
			return result, fmt.Errorf("storefront: seed product %d: %w", i, err)
		}
	}
	for _, c := range doc.Categories {
		if err := data.Insert(ctx, tableCategories, Record{"name": c.Name}); err != nil {
			return result, fmt.Errorf("storefront: seed category %q: %w", c.Name, err)
		}
		result.Categories++
	}
	for _, p := range doc.Products {
		record := Record{
			"name":        p.Name,
			"price":       p.Price,
			"description": p.Description,
			"image_url":   p.ImageURL,
		}
		if err := data.Insert(ctx, ResourceProducts.Table(), record); err != nil {
			return result, fmt.Errorf("storefront: seed product %q: %w", p.Name, err)
		}
		result.Products++
	}
	return result, nil
}
