package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Common table names used by the storefront core.
const (
	TableProducts       = "products"
	TableOrders         = "orders"
	TableOrderItems     = "order_items"
	TableLoyaltyRecords = "loyalty_records"
	TableDomainEvents   = "domain_events"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("row not found")

// ErrConflict indicates a conditional write lost against a concurrent writer:
// either the id already exists (CreateIfAbsent) or the expected revision no
// longer matches (Update).
var ErrConflict = errors.New("row conflict")

// AnyRevision disables the revision check on Update.
const AnyRevision int64 = -1

// Row is a stored JSON document plus the bookkeeping fields every table carries.
type Row struct {
	ID        string
	Revision  int64
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the row payload into dst.
func (r Row) Decode(dst any) error {
	if len(r.Data) == 0 {
		return errors.New("store: empty row payload")
	}
	return json.Unmarshal(r.Data, dst)
}

// Filter restricts List to rows whose top-level JSON field equals the value.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store is the row store contract the core depends on. Handles are passed
// explicitly so tests can substitute Mem for PG.
type Store interface {
	Get(ctx context.Context, table, id string) (Row, error)
	List(ctx context.Context, table string, filters ...Filter) ([]Row, error)
	Create(ctx context.Context, table, id string, data any) (Row, error)
	// CreateIfAbsent inserts the row only when the id is free and returns
	// ErrConflict otherwise. This is the insert-if-absent primitive idempotent
	// issuance builds on.
	CreateIfAbsent(ctx context.Context, table, id string, data any) (Row, error)
	// Update replaces the row payload. When expectedRevision is not
	// AnyRevision the write succeeds only if the stored revision still
	// matches, otherwise ErrConflict is returned.
	Update(ctx context.Context, table, id string, data any, expectedRevision int64) (Row, error)
	Delete(ctx context.Context, table, id string) error
}

func encode(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return json.RawMessage(v), nil
	default:
		return json.Marshal(data)
	}
}
