// Package memstore provides in-memory stand-ins for the hosted backend: a
// data store, an authenticator and an object bucket. They back the
// "memory" backend mode and end-to-end tests.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-storefront/components/storefront"
)

// Store is an in-memory storefront.DataStore. Rows receive sequential
// numeric ids and a created_at timestamp on insert.
type Store struct {
	now func() time.Time

	mu     sync.Mutex
	tables map[string][]storefront.Record
	nextID map[string]int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:    time.Now,
		tables: map[string][]storefront.Record{},
		nextID: map[string]int64{},
	}
}

var _ storefront.DataStore = (*Store)(nil)

// SelectAll returns every row of table in insertion order.
func (s *Store) SelectAll(ctx context.Context, table string) ([]storefront.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storefront.Record, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		clone, err := cloneRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// SelectWhereIn returns the rows whose column matches one of values.
func (s *Store) SelectWhereIn(ctx context.Context, table, column string, values []string) ([]storefront.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storefront.Record
	for _, row := range s.tables[table] {
		if !wanted[valueKey(row[column])] {
			continue
		}
		clone, err := cloneRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// Insert appends a row.
func (s *Store) Insert(ctx context.Context, table string, record storefront.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := cloneRecord(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID[table]++
	row["id"] = json.Number(strconv.FormatInt(s.nextID[table], 10))
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = s.now().UTC().Format(time.RFC3339Nano)
	}
	s.tables[table] = append(s.tables[table], row)
	return nil
}

// Update merges patch into the row with the given id. Missing rows are
// ignored, as the hosted API does.
func (s *Store) Update(ctx context.Context, table string, id storefront.ID, patch storefront.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	values, err := cloneRecord(patch)
	if err != nil {
		return err
	}
	delete(values, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.tables[table] {
		if valueKey(row["id"]) != id.String() {
			continue
		}
		for k, v := range values {
			row[k] = v
		}
	}
	return nil
}

// Delete removes the row with the given id. Missing rows are ignored.
func (s *Store) Delete(ctx context.Context, table string, id storefront.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if valueKey(row["id"]) != id.String() {
			rows = append(rows, row)
		}
	}
	s.tables[table] = rows
	return nil
}

// Len reports the number of rows in table.
func (s *Store) Len(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// cloneRecord copies a record through JSON so stored rows hold plain values
// and never alias caller maps.
func cloneRecord(record storefront.Record) (storefront.Record, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("memstore: encode record: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	out := storefront.Record{}
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("memstore: decode record: %w", err)
	}
	return out, nil
}

func valueKey(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
