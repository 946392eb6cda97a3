package storefront

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"
	"time"
)

type updateCall struct {
	table string
	id    ID
	patch Record
}

type fakeDataStore struct {
	mu         sync.Mutex
	tables     map[string][]Record
	selectErr  map[string]error
	whereInErr error
	insertErr  error
	updateErr  error
	deleteErr  map[string]error
	nextID     int

	selects  map[string]int
	whereIns [][]string
	inserts  []Record
	updates  []updateCall
	deletes  []ID

	started chan string
	release chan struct{}
}

func newFakeDataStore() *fakeDataStore {
	return &fakeDataStore{
		tables:    map[string][]Record{},
		selectErr: map[string]error{},
		deleteErr: map[string]error{},
		selects:   map[string]int{},
		nextID:    100,
	}
}

func (f *fakeDataStore) seed(table string, rows ...Record) *fakeDataStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], rows...)
	return f
}

func (f *fakeDataStore) SelectAll(ctx context.Context, table string) ([]Record, error) {
	f.mu.Lock()
	f.selects[table]++
	started, release := f.started, f.release
	f.mu.Unlock()
	if started != nil {
		started <- table
	}
	if release != nil {
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.selectErr[table]; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		out = append(out, maps.Clone(r))
	}
	return out, nil
}

func (f *fakeDataStore) SelectWhereIn(ctx context.Context, table, column string, values []string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whereIns = append(f.whereIns, append([]string(nil), values...))
	if f.whereInErr != nil {
		return nil, f.whereInErr
	}
	wanted := map[string]bool{}
	for _, v := range values {
		wanted[v] = true
	}
	var out []Record
	for _, r := range f.tables[table] {
		if wanted[fmt.Sprint(r[column])] {
			out = append(out, maps.Clone(r))
		}
	}
	return out, nil
}

func (f *fakeDataStore) Insert(ctx context.Context, table string, record Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, maps.Clone(record))
	if f.insertErr != nil {
		return f.insertErr
	}
	row := maps.Clone(record)
	f.nextID++
	row["id"] = f.nextID
	f.tables[table] = append(f.tables[table], row)
	return nil
}

func (f *fakeDataStore) Update(ctx context.Context, table string, id ID, patch Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{table: table, id: id, patch: maps.Clone(patch)})
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, r := range f.tables[table] {
		if fmt.Sprint(r["id"]) == id.String() {
			maps.Copy(r, patch)
		}
	}
	return nil
}

func (f *fakeDataStore) Delete(ctx context.Context, table string, id ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if err := f.deleteErr[table]; err != nil {
		return err
	}
	rows := f.tables[table][:0]
	for _, r := range f.tables[table] {
		if fmt.Sprint(r["id"]) != id.String() {
			rows = append(rows, r)
		}
	}
	f.tables[table] = rows
	return nil
}

func (f *fakeDataStore) selectCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selects[table]
}

type fakeAuth struct {
	mu        sync.Mutex
	identity  Identity
	ok        bool
	err       error
	listeners map[int]func(Identity, bool)
	next      int
}

func newFakeAuth(identity *Identity) *fakeAuth {
	a := &fakeAuth{listeners: map[int]func(Identity, bool){}}
	if identity != nil {
		a.identity = *identity
		a.ok = true
	}
	return a
}

func (a *fakeAuth) CurrentIdentity(context.Context) (Identity, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity, a.ok, a.err
}

func (a *fakeAuth) OnIdentityChange(fn func(Identity, bool)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *fakeAuth) set(identity Identity, ok bool) {
	a.mu.Lock()
	a.identity, a.ok = identity, ok
	listeners := make([]func(Identity, bool), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(identity, ok)
	}
}

func (a *fakeAuth) listenerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners)
}

type uploadCall struct {
	bucket string
	path   string
	body   []byte
	opts   UploadOptions
}

type fakeStorage struct {
	mu      sync.Mutex
	err     error
	uploads []uploadCall
}

func (s *fakeStorage) Upload(ctx context.Context, bucket, path string, body io.Reader, opts UploadOptions) (string, error) {
	data, _ := io.ReadAll(body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, uploadCall{bucket: bucket, path: path, body: data, opts: opts})
	if s.err != nil {
		return "", s.err
	}
	return path, nil
}

func (s *fakeStorage) PublicURL(bucket, storedPath string) string {
	return "https://cdn.test/storage/v1/object/public/" + bucket + "/" + storedPath
}

type fakeNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *fakeNavigator) Redirect(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

type recordingRefresh struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingRefresh) CollectionUpdated(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

var fixedClock = func() time.Time { return time.UnixMilli(1700000000000) }

var testAdmin = Identity{ID: "0b6b1c1e-8f36-4c5f-9d43-3f3c8c1f0a11", Email: "admin@example.com"}

type dashboardFixture struct {
	data      *fakeDataStore
	auth      *fakeAuth
	storage   *fakeStorage
	navigator *fakeNavigator
	refresh   *recordingRefresh
	dashboard *Dashboard
}

func newDashboardFixture(identity *Identity) *dashboardFixture {
	f := &dashboardFixture{
		data:      newFakeDataStore(),
		auth:      newFakeAuth(identity),
		storage:   &fakeStorage{},
		navigator: &fakeNavigator{},
		refresh:   &recordingRefresh{},
	}
	f.dashboard = NewDashboard(Options{
		Data:        f.data,
		Auth:        f.auth,
		Storage:     f.storage,
		Navigator:   f.navigator,
		RefreshHook: f.refresh,
		Clock:       fixedClock,
	})
	return f
}

func seedCatalog(data *fakeDataStore) {
	data.seed("products",
		Record{"id": 5, "name": "Oak Table", "price": 450.0, "description": "Solid oak", "image_url": nil},
		Record{"id": 7, "name": "Linen Sofa", "price": 1200.0, "description": "Three seats", "image_url": "https://cdn.test/sofa.jpg"},
	)
	data.seed("orders",
		Record{"id": 1, "customer_name": "Ana", "product_id": 5, "message": "", "status": "new"},
		Record{"id": 2, "customer_name": "Ben", "product_id": 7, "message": "Blue please", "status": "in progress"},
		Record{"id": 3, "customer_name": "Cleo", "product_id": 99, "message": "", "status": "completed"},
	)
	data.seed("requests",
		Record{"id": 12, "customer_name": "Dan", "message": "Custom wardrobe?"},
	)
	data.seed("messages",
		Record{"id": 4, "name": "Eve", "email": "eve@example.com", "message": "Opening hours?"},
	)
}
