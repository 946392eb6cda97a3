package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-storefront/components/storefront"
)

const restPrefix = "/rest/v1/"

// DataStore is the REST data API bound to one access token.
type DataStore struct {
	client *Client
	token  string
}

// DataStore returns a storefront.DataStore that acts as the token's user.
// An empty token uses the anonymous API key.
func (c *Client) DataStore(token string) *DataStore {
	return &DataStore{client: c, token: token}
}

var _ storefront.DataStore = (*DataStore)(nil)

// SelectAll reads every row of table.
func (d *DataStore) SelectAll(ctx context.Context, table string) ([]storefront.Record, error) {
	var rows []storefront.Record
	err := d.client.send(ctx, request{
		method: http.MethodGet,
		path:   restPrefix + table,
		query:  url.Values{"select": {"*"}},
		token:  d.token,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectWhereIn reads the rows whose column is one of values.
func (d *DataStore) SelectWhereIn(ctx context.Context, table, column string, values []string) ([]storefront.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteFilterValue(v)
	}
	var rows []storefront.Record
	err := d.client.send(ctx, request{
		method: http.MethodGet,
		path:   restPrefix + table,
		query: url.Values{
			"select": {"*"},
			column:   {"in.(" + strings.Join(quoted, ",") + ")"},
		},
		token: d.token,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates one row.
func (d *DataStore) Insert(ctx context.Context, table string, record storefront.Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("backend: encode %s row: %w", table, err)
	}
	return d.client.send(ctx, request{
		method:  http.MethodPost,
		path:    restPrefix + table,
		token:   d.token,
		body:    bytes.NewReader(body),
		headers: writeHeaders,
	}, nil)
}

// Update patches the row with the given id.
func (d *DataStore) Update(ctx context.Context, table string, id storefront.ID, patch storefront.Record) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("backend: encode %s patch: %w", table, err)
	}
	return d.client.send(ctx, request{
		method:  http.MethodPatch,
		path:    restPrefix + table,
		query:   url.Values{"id": {"eq." + id.String()}},
		token:   d.token,
		body:    bytes.NewReader(body),
		headers: writeHeaders,
	}, nil)
}

// Delete removes the row with the given id.
func (d *DataStore) Delete(ctx context.Context, table string, id storefront.ID) error {
	return d.client.send(ctx, request{
		method:  http.MethodDelete,
		path:    restPrefix + table,
		query:   url.Values{"id": {"eq." + id.String()}},
		token:   d.token,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

var writeHeaders = map[string]string{
	"Content-Type": "application/json",
	"Prefer":       "return=minimal",
}

// quoteFilterValue double-quotes values containing characters reserved by
// the in.() list syntax.
func quoteFilterValue(v string) string {
	if !strings.ContainsAny(v, `,()". `) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
