package store

import (
	"context"
	"errors"
	"testing"
)

type doc struct {
	CustomerID string `json:"customerId"`
	Amount     int64  `json:"amount"`
}

func TestCreateIfAbsentConflict(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	if _, err := m.CreateIfAbsent(ctx, "loyalty_records", "cust-1", doc{CustomerID: "cust-1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := m.CreateIfAbsent(ctx, "loyalty_records", "cust-1", doc{CustomerID: "cust-1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if m.Count("loyalty_records") != 1 {
		t.Fatalf("expected a single row, got %d", m.Count("loyalty_records"))
	}
}

func TestUpdateRevisionCheck(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	row, err := m.Create(ctx, "orders", "o-1", doc{Amount: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Update(ctx, "orders", "o-1", doc{Amount: 200}, row.Revision); err != nil {
		t.Fatalf("update with matching revision: %v", err)
	}
	_, err = m.Update(ctx, "orders", "o-1", doc{Amount: 300}, row.Revision)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on stale revision, got %v", err)
	}
	updated, err := m.Update(ctx, "orders", "o-1", doc{Amount: 300}, AnyRevision)
	if err != nil {
		t.Fatalf("unconditional update: %v", err)
	}
	if updated.Revision != 3 {
		t.Fatalf("expected revision 3, got %d", updated.Revision)
	}
}

func TestListFilters(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	for i, customer := range []string{"a", "a", "b"} {
		id := string(rune('x' + i))
		if _, err := m.Create(ctx, "order_items", id, doc{CustomerID: customer}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	rows, err := m.List(ctx, "order_items", Eq("customerId", "a"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for customer a, got %d", len(rows))
	}
}

func TestDecode(t *testing.T) {
	m := NewMem()
	ctx := context.Background()
	row, err := m.Create(ctx, "orders", "o-1", doc{CustomerID: "c", Amount: 42})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var got doc
	if err := row.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Amount != 42 || got.CustomerID != "c" {
		t.Fatalf("unexpected decode result: %+v", got)
	}
}
