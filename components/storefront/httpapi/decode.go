package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-storefront/components/storefront"
)

const maxUploadBytes = 10 << 20

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

func wantsJSON(r *http.Request) bool {
	return isJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// decodeInput reads a JSON body, or the named form fields of an urlencoded
// or multipart body, into dst.
func decodeInput(r *http.Request, dst any, fields ...string) error {
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode body: %w", err)
		}
		return nil
	}
	if err := parseForm(r); err != nil {
		return err
	}
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field] = r.FormValue(field)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return fmt.Errorf("parse form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// productInput reads the product form. The price stays as typed; the form
// controller decides how to parse it.
func productInput(r *http.Request) (storefront.ProductFormInput, error) {
	var input storefront.ProductFormInput
	if isJSON(r) {
		var raw map[string]any
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return input, fmt.Errorf("decode body: %w", err)
		}
		input.Name = stringValue(raw["name"])
		input.Price = stringValue(raw["price"])
		input.Description = stringValue(raw["description"])
		return input, nil
	}
	if err := parseForm(r); err != nil {
		return input, err
	}
	input.Name = r.FormValue("name")
	input.Price = r.FormValue("price")
	input.Description = r.FormValue("description")

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return input, nil
	case err != nil:
		return input, fmt.Errorf("read image: %w", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return input, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return input, nil
	}
	input.Image = &storefront.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return input, nil
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

func catalogQuery(r *http.Request) storefront.CatalogQuery {
	values := r.URL.Query()
	return storefront.CatalogQuery{
		Search:   values.Get("search"),
		MinPrice: floatParam(values.Get("min_price")),
		MaxPrice: floatParam(values.Get("max_price")),
		Sort:     storefront.CatalogSort(values.Get("sort")),
	}
}

func floatParam(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
