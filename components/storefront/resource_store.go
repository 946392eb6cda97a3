package storefront

import (
	"context"
	"sort"
	"sync"
)

// Collection is the client-side copy of one backend table.
type Collection[T any] struct {
	Rows   []T
	Err    error
	Loaded bool
}

func (c Collection[T]) clone() Collection[T] {
	rows := make([]T, len(c.Rows))
	copy(rows, c.Rows)
	return Collection[T]{Rows: rows, Err: c.Err, Loaded: c.Loaded}
}

// ResourceStore holds the four independently loaded collections.
// A failed load flags the resource and keeps the previous rows.
type ResourceStore struct {
	data      DataStore
	telemetry Telemetry

	mu           sync.RWMutex
	epoch        uint64
	products     Collection[Product]
	orders       Collection[Order]
	requests     Collection[Request]
	messages     Collection[Message]
	productNames map[ID]string
}

// NewResourceStore builds an empty store over the data collaborator.
func NewResourceStore(data DataStore, telemetry Telemetry) *ResourceStore {
	return &ResourceStore{
		data:         data,
		telemetry:    normalizeTelemetry(telemetry),
		productNames: map[ID]string{},
	}
}

// Load replaces the resource collection with a fresh read. On failure the
// previous rows are kept and a *LoadError is returned.
func (s *ResourceStore) Load(ctx context.Context, resource Resource) error {
	if s.data == nil {
		return &LoadError{Resource: resource, Err: errMissingDataStore}
	}
	epoch := s.currentEpoch()
	var err error
	switch resource {
	case ResourceProducts:
		err = loadCollection(ctx, s, epoch, resource, &s.products, nil)
	case ResourceOrders:
		err = loadCollection(ctx, s, epoch, resource, &s.orders, s.resolveProductNames)
	case ResourceRequests:
		err = loadCollection(ctx, s, epoch, resource, &s.requests, nil)
	case ResourceMessages:
		err = loadCollection(ctx, s, epoch, resource, &s.messages, nil)
	default:
		return &LoadError{Resource: resource, Err: errUnknownResource}
	}
	if err != nil {
		s.telemetry.Record(ctx, "storefront.collection.load_error", map[string]any{
			"resource": string(resource),
			"error":    err.Error(),
		})
		return err
	}
	s.telemetry.Record(ctx, "storefront.collection.load", map[string]any{
		"resource": string(resource),
	})
	return nil
}

// LoadAll loads every collection concurrently. No load waits on another and
// the returned slice holds one entry per failed resource.
func (s *ResourceStore) LoadAll(ctx context.Context) []error {
	resources := Resources()
	errs := make([]error, len(resources))
	var wg sync.WaitGroup
	for i, resource := range resources {
		wg.Add(1)
		go func(i int, resource Resource) {
			defer wg.Done()
			errs[i] = s.Load(ctx, resource)
		}(i, resource)
	}
	wg.Wait()
	failed := errs[:0]
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}

func loadCollection[T any](
	ctx context.Context,
	s *ResourceStore,
	epoch uint64,
	resource Resource,
	target *Collection[T],
	after func(ctx context.Context, rows []T) func(),
) error {
	records, err := s.data.SelectAll(ctx, resource.Table())
	if err == nil {
		var rows []T
		rows, err = decodeRows[T](records)
		if err == nil {
			var commitExtra func()
			if after != nil {
				commitExtra = after(ctx, rows)
			}
			s.commit(epoch, func() {
				*target = Collection[T]{Rows: rows, Loaded: true}
				if commitExtra != nil {
					commitExtra()
				}
			})
			return nil
		}
	}
	loadErr := &LoadError{Resource: resource, Err: err}
	s.commit(epoch, func() {
		target.Err = loadErr
	})
	return loadErr
}

// resolveProductNames performs the batch product-name lookup for loaded orders.
// The returned func installs the mapping and runs under the store lock.
func (s *ResourceStore) resolveProductNames(ctx context.Context, orders []Order) func() {
	ids := distinctProductIDs(orders)
	names := map[ID]string{}
	if len(ids) > 0 {
		records, err := s.data.SelectWhereIn(ctx, ResourceProducts.Table(), "id", ids)
		if err != nil {
			s.telemetry.Record(ctx, "storefront.orders.product_lookup_error", map[string]any{
				"error": err.Error(),
			})
		} else if products, err := decodeRows[Product](records); err == nil {
			for _, p := range products {
				names[p.ID] = p.Name
			}
		}
	}
	return func() {
		s.productNames = names
	}
}

func distinctProductIDs(orders []Order) []string {
	seen := make(map[ID]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.ProductID.IsZero() {
			continue
		}
		if _, ok := seen[o.ProductID]; ok {
			continue
		}
		seen[o.ProductID] = struct{}{}
		ids = append(ids, o.ProductID.String())
	}
	sort.Strings(ids)
	return ids
}

func (s *ResourceStore) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// commit applies fn unless the store was detached since epoch was read.
func (s *ResourceStore) commit(epoch uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	fn()
}

// detach discards the results of loads still in flight.
func (s *ResourceStore) detach() {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}

// Products returns a copy of the products collection.
func (s *ResourceStore) Products() Collection[Product] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products.clone()
}

// Orders returns a copy of the orders collection.
func (s *ResourceStore) Orders() Collection[Order] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.clone()
}

// Requests returns a copy of the requests collection.
func (s *ResourceStore) Requests() Collection[Request] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests.clone()
}

// Messages returns a copy of the messages collection.
func (s *ResourceStore) Messages() Collection[Message] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages.clone()
}

// OrderRows joins the loaded orders with product names for display.
func (s *ResourceStore) OrderRows() []OrderRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return projectOrders(s.orders.Rows, s.productNames, s.products.Rows)
}

// Err returns the resource-scoped load error, if any.
func (s *ResourceStore) Err(resource Resource) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch resource {
	case ResourceProducts:
		return s.products.Err
	case ResourceOrders:
		return s.orders.Err
	case ResourceRequests:
		return s.requests.Err
	case ResourceMessages:
		return s.messages.Err
	}
	return nil
}

// ClearErr dismisses the load banner for the resource.
func (s *ResourceStore) ClearErr(resource Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch resource {
	case ResourceProducts:
		s.products.Err = nil
	case ResourceOrders:
		s.orders.Err = nil
	case ResourceRequests:
		s.requests.Err = nil
	case ResourceMessages:
		s.messages.Err = nil
	}
}

// Counts returns the number of rows held per collection.
func (s *ResourceStore) Counts() map[Resource]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[Resource]int{
		ResourceProducts: len(s.products.Rows),
		ResourceOrders:   len(s.orders.Rows),
		ResourceRequests: len(s.requests.Rows),
		ResourceMessages: len(s.messages.Rows),
	}
}
