package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/sawahraya/backend-beras/internal/catalog"
	"github.com/sawahraya/backend-beras/internal/pricing"
)

type fakeProducts struct {
	products map[string]catalog.Product
}

func (f *fakeProducts) Product(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func money(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func riceProduct(id string) catalog.Product {
	return catalog.Product{
		ID:             id,
		Name:           "Beras Pandan Wangi",
		BasePricePerKg: 200,
		HasTierPricing: true,
		Tier2to4Price:  money(190),
		Tier5to9Price:  money(180),
		Tier10UpPrice:  money(170),
	}
}

func TestAddBagCreatesLine(t *testing.T) {
	var c Cart
	if err := c.AddBag("p1", Bag10Kg); err != nil {
		t.Fatalf("add bag: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 10 {
		t.Fatalf("expected derived quantity 10, got %d", c.Items[0].Quantity)
	}
	if c.TotalItems() != 1 {
		t.Fatalf("badge should count bags, got %d", c.TotalItems())
	}
}

func TestRemoveLastBagEvictsLine(t *testing.T) {
	var c Cart
	if err := c.AddBag("p1", Bag5Kg); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.RemoveBag("p1", Bag5Kg); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("cart must not hold zero-quantity ghost entries, got %+v", c.Items)
	}
}

func TestRemoveBagAbsentLineIsNoop(t *testing.T) {
	var c Cart
	if err := c.RemoveBag("missing", Bag1Kg); err != nil {
		t.Fatalf("remove on absent line must be a no-op: %v", err)
	}
}

func TestTotalItemsCountsBagsNotKg(t *testing.T) {
	var c Cart
	for i := 0; i < 2; i++ {
		if err := c.AddBag("p1", Bag25Kg); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := c.AddBag("p2", Bag1Kg); err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.TotalItems() != 3 {
		t.Fatalf("expected 3 bags in badge, got %d", c.TotalItems())
	}
	if c.TotalWeightKg() != 51 {
		t.Fatalf("expected 51 kg, got %d", c.TotalWeightKg())
	}
}

func TestNormalizeUpgradesLegacyItems(t *testing.T) {
	c := Cart{Items: []Item{{ProductID: "p1", Quantity: 7}}}
	c.Normalize()
	if c.Items[0].Bags == nil {
		t.Fatal("legacy item must gain a zeroed bag structure")
	}
	if c.Items[0].Quantity != 0 {
		t.Fatalf("quantity must be re-derived from bags, got %d", c.Items[0].Quantity)
	}
}

func TestPriceRecomputesFromLiveProducts(t *testing.T) {
	src := &fakeProducts{products: map[string]catalog.Product{"p1": riceProduct("p1")}}
	var c Cart
	if err := c.AddBag("p1", Bag10Kg); err != nil {
		t.Fatalf("add: %v", err)
	}
	summary, err := c.Price(context.Background(), src)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if summary.Total != 1700 || summary.Savings != 300 {
		t.Fatalf("expected total 1700 savings 300, got %+v", summary)
	}

	// Changing the product's tier price changes the cart total without any
	// cart mutation.
	p := src.products["p1"]
	p.Tier10UpPrice = money(150)
	src.products["p1"] = p
	summary, err = c.Price(context.Background(), src)
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if summary.Total != 1500 {
		t.Fatalf("expected repriced total 1500, got %d", summary.Total)
	}
}

func TestPriceMissingProductDegrades(t *testing.T) {
	src := &fakeProducts{products: map[string]catalog.Product{"p1": riceProduct("p1")}}
	var c Cart
	if err := c.AddBag("p1", Bag5Kg); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddBag("ghost", Bag1Kg); err != nil {
		t.Fatalf("add: %v", err)
	}
	summary, err := c.Price(context.Background(), src)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("expected both lines, got %d", len(summary.Lines))
	}
	var ghost *Line
	for i := range summary.Lines {
		if summary.Lines[i].ProductID == "ghost" {
			ghost = &summary.Lines[i]
		}
	}
	if ghost == nil || !ghost.Missing || ghost.Quote.Total != 0 {
		t.Fatalf("missing product must price to zero and be flagged: %+v", summary.Lines)
	}
	if summary.Total != 900 {
		t.Fatalf("expected surviving line total 900, got %d", summary.Total)
	}
}

func TestPriceRequiresSource(t *testing.T) {
	var c Cart
	if _, err := c.Price(context.Background(), nil); err == nil {
		t.Fatal("expected error without a product source")
	}
}

func TestServiceRejectsInvalidSizeWithoutMutation(t *testing.T) {
	// Validation failures must leave the stored cart untouched; exercised at
	// the composer boundary here.
	var c Cart
	if err := c.AddBag("p1", BagSize(3)); !errors.Is(err, ErrInvalidBagSize) {
		t.Fatalf("expected ErrInvalidBagSize, got %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("cart mutated on invalid size: %+v", c.Items)
	}
}
