package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sawahraya/backend-beras/internal/store"
)

func testService() (*Service, *store.Mem) {
	mem := store.NewMem()
	return &Service{
		Store: mem,
		Now:   func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}, mem
}

func sampleOrder(id, customer string) (Order, []Item) {
	o := Order{ID: id, CustomerID: customer, TotalPrice: 900}
	items := []Item{{ID: id + "-item-1", ProductID: "rice-1", QuantityKg: 5, Subtotal: 900, Total: 900}}
	return o, items
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()
	o, items := sampleOrder("ord-1", "cust-1")

	created, err := svc.Create(ctx, o, items)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != StatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not stamped")
	}

	got, gotItems, err := svc.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerID != "cust-1" || got.TotalPrice != 900 {
		t.Fatalf("order = %+v", got)
	}
	if len(gotItems) != 1 || gotItems[0].OrderID != "ord-1" {
		t.Fatalf("items = %+v", gotItems)
	}
}

func TestGetMissing(t *testing.T) {
	svc, _ := testService()
	if _, _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByCustomerFiltersOthers(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()
	for _, tc := range []struct{ id, cust string }{
		{"ord-1", "cust-1"},
		{"ord-2", "cust-2"},
		{"ord-3", "cust-1"},
	} {
		o, items := sampleOrder(tc.id, tc.cust)
		if _, err := svc.Create(ctx, o, items); err != nil {
			t.Fatalf("Create %s: %v", tc.id, err)
		}
	}
	got, err := svc.ListByCustomer(ctx, "cust-1")
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("orders = %d, want 2", len(got))
	}
	for _, o := range got {
		if o.CustomerID != "cust-1" {
			t.Fatalf("leaked order %s for %s", o.ID, o.CustomerID)
		}
	}
}

func TestUpdateStatusEnforcesMachine(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()
	o, items := sampleOrder("ord-1", "cust-1")
	if _, err := svc.Create(ctx, o, items); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Skipping accepted is illegal.
	if _, err := svc.UpdateStatus(ctx, "ord-1", StatusDelivered, ""); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("err = %v, want ErrBadTransition", err)
	}

	for _, next := range []Status{StatusAccepted, StatusOutForDelivery, StatusDelivered} {
		updated, err := svc.UpdateStatus(ctx, "ord-1", next, "")
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %q, want %q", updated.Status, next)
		}
	}

	// Delivered is terminal.
	if _, err := svc.UpdateStatus(ctx, "ord-1", StatusReturned, ""); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("err = %v, want ErrBadTransition", err)
	}
}

func TestUpdateStatusPreservesPriceFields(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()
	o, items := sampleOrder("ord-1", "cust-1")
	if _, err := svc.Create(ctx, o, items); err != nil {
		t.Fatalf("Create: %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, "ord-1", StatusAccepted, "packed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.TotalPrice != 900 {
		t.Fatalf("total price changed to %d", updated.TotalPrice)
	}
	if updated.Notes != "packed" {
		t.Fatalf("notes = %q", updated.Notes)
	}
}
