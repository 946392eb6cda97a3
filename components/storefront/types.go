package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Record is a generic row exchanged with the hosted data service.
type Record map[string]any

// DataStore encapsulates the table-oriented operations provided by the hosted backend.
// Implementations must be safe for concurrent use.
type DataStore interface {
	SelectAll(ctx context.Context, table string) ([]Record, error)
	SelectWhereIn(ctx context.Context, table, column string, values []string) ([]Record, error)
	Insert(ctx context.Context, table string, record Record) error
	Update(ctx context.Context, table string, id ID, patch Record) error
	Delete(ctx context.Context, table string, id ID) error
}

// AuthProvider exposes the signed-in identity and its change notifications.
type AuthProvider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool, error)
	OnIdentityChange(fn func(identity Identity, ok bool)) (unsubscribe func())
}

// ObjectStorage uploads binary payloads and resolves their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, opts UploadOptions) (string, error)
	PublicURL(bucket, storedPath string) string
}

// UploadOptions mirrors the storage API upload flags.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// Navigator moves the viewer to another route.
type Navigator interface {
	Redirect(ctx context.Context, path string)
}

// RefreshHook notifies transports (REST/WebSocket) about collection changes.
type RefreshHook interface {
	CollectionUpdated(ctx context.Context, event Event) error
}

// Event describes changes that transports might care about.
type Event struct {
	Resource Resource `json:"resource"`
	ID       ID       `json:"id,omitempty"`
	Reason   string   `json:"reason"`
}

// Resource names one of the four managed collections.
type Resource string

const (
	ResourceProducts Resource = "products"
	ResourceOrders   Resource = "orders"
	ResourceRequests Resource = "requests"
	ResourceMessages Resource = "messages"
)

// Resources lists the collections in display order.
func Resources() []Resource {
	return []Resource{ResourceProducts, ResourceOrders, ResourceRequests, ResourceMessages}
}

// Table returns the backend table holding the resource.
func (r Resource) Table() string { return string(r) }

// Valid reports whether r is a managed collection.
func (r Resource) Valid() bool {
	switch r {
	case ResourceProducts, ResourceOrders, ResourceRequests, ResourceMessages:
		return true
	}
	return false
}

const tableCategories = "categories"

// ID is an opaque record identifier. Numeric identifiers round-trip as JSON numbers.
type ID string

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id ID) numeric() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// MarshalJSON emits numeric identifiers as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.numeric(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a string.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("storefront: decode id %s: %w", raw, err)
	}
	*id = ID(n.String())
	return nil
}

// compareIDs orders numeric identifiers numerically and everything else lexically.
func compareIDs(a, b ID) int {
	an, aok := a.numeric()
	bn, bok := b.numeric()
	switch {
	case aok && bok:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(string(a), string(b))
}

// Product is a catalog item.
type Product struct {
	ID          ID         `json:"id"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	ImageURL    *string    `json:"image_url"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Order is a purchase intent placed from the product detail page.
type Order struct {
	ID           ID          `json:"id"`
	CustomerName string      `json:"customer_name"`
	ProductID    ID          `json:"product_id"`
	Message      string      `json:"message"`
	Status       OrderStatus `json:"status"`
}

// Request is a free-form customer inquiry.
type Request struct {
	ID           ID     `json:"id"`
	CustomerName string `json:"customer_name"`
	Message      string `json:"message"`
}

// Message is an inbound contact-form submission.
type Message struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Body  string `json:"message"`
}

// Category is a read-only catalog reference.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Identity is the authenticated admin as reported by the auth service.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// OrderStatus tracks fulfilment progress. Any status may move to any other.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// OrderStatuses lists the accepted statuses in workflow order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusNew, OrderStatusInProgress, OrderStatusCompleted}
}

// ParseOrderStatus normalises user input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)
	switch OrderStatus(normalized) {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusCompleted:
		return OrderStatus(normalized), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, value)
}

// Valid reports whether s is one of the accepted statuses.
func (s OrderStatus) Valid() bool {
	_, err := ParseOrderStatus(string(s))
	return err == nil
}

func decodeRows[T any](rows []Record) ([]T, error) {
	out := make([]T, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("storefront: marshal rows: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("storefront: decode rows: %w", err)
	}
	return out, nil
}
