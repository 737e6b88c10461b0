package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/sawahraya/backend-beras/internal/pricing"
	"github.com/sawahraya/backend-beras/internal/store"
)

func moneyPtr(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func TestUpsertAssignsIDAndRoundTrips(t *testing.T) {
	svc := &Service{Store: store.NewMem()}
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, Product{Name: "Beras Pandan", BasePricePerKg: 240})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("id not assigned")
	}

	got, err := svc.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Beras Pandan" || got.BasePricePerKg != 240 {
		t.Fatalf("got %+v", got)
	}
}

func TestUpsertWithIDReplacesOrCreates(t *testing.T) {
	svc := &Service{Store: store.NewMem()}
	ctx := context.Background()

	// Explicit id on a fresh row creates it.
	p := Product{ID: "beras-merah", Name: "Beras Merah", BasePricePerKg: 260}
	if _, err := svc.Upsert(ctx, p); err != nil {
		t.Fatalf("create with id: %v", err)
	}

	p.BasePricePerKg = 270
	if _, err := svc.Upsert(ctx, p); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := svc.Get(ctx, "beras-merah")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BasePricePerKg != 270 {
		t.Fatalf("base price = %d, want 270", got.BasePricePerKg)
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	svc := &Service{Store: store.NewMem()}
	ctx := context.Background()

	cases := []Product{
		{Name: "", BasePricePerKg: 100},
		{Name: "No Price"},
		{Name: "Tiered No Tiers", BasePricePerKg: 100, HasTierPricing: true},
	}
	for _, p := range cases {
		if _, err := svc.Upsert(ctx, p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Upsert(%+v) err = %v, want ErrInvalidInput", p, err)
		}
	}
}

func TestUpsertAcceptsTierAnomaly(t *testing.T) {
	svc := &Service{Store: store.NewMem()}

	// A tier price above base is bad data but not a rejection.
	p := Product{
		Name:           "Anomalous",
		BasePricePerKg: 100,
		HasTierPricing: true,
		Tier10UpPrice:  moneyPtr(150),
	}
	if _, err := svc.Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	anomalies := p.Anomalies()
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %v", anomalies)
	}
}

func TestGetMissing(t *testing.T) {
	svc := &Service{Store: store.NewMem()}
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListReturnsAll(t *testing.T) {
	svc := &Service{Store: store.NewMem()}
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Upsert(ctx, Product{Name: name, BasePricePerKg: 100}); err != nil {
			t.Fatalf("Upsert %s: %v", name, err)
		}
	}
	got, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("products = %d, want 3", len(got))
	}
}
