package order

import (
	"time"

	"github.com/sawahraya/backend-beras/internal/cart"
	"github.com/sawahraya/backend-beras/internal/pricing"
)

// UnknownProductName is the placeholder a snapshot carries when the product
// vanished between cart-add and checkout.
const UnknownProductName = "Unknown Product"

// Item is an immutable snapshot of one order line. Price fields are a
// permanent historical record: later product edits or deletions never alter
// them. Only Status/Notes may change afterwards, for administrative
// corrections.
type Item struct {
	ID                 string         `json:"id"`
	OrderID            string         `json:"orderId"`
	ProductID          string         `json:"productId"`
	ProductName        string         `json:"productName"`
	ProductDescription string         `json:"productDescription"`
	QuantityKg         int            `json:"quantityKg"`
	Bags               cart.BagCounts `json:"bags"`
	PricePerKg         pricing.Money  `json:"pricePerKgAtOrder"`
	BasePricePerKg     pricing.Money  `json:"basePricePerKgAtOrder"`
	TierApplied        pricing.Tier   `json:"tierApplied,omitempty"`
	TierPrice          *pricing.Money `json:"tierPriceAtOrder,omitempty"`
	DiscountBps        int64          `json:"discountBps"`
	DiscountAmount     pricing.Money  `json:"discountAmount"`
	Subtotal           pricing.Money  `json:"subtotalBeforeDiscount"`
	Total              pricing.Money  `json:"totalAfterDiscount"`
	Notes              string         `json:"notes,omitempty"`
	NeedsReconcile     bool           `json:"needsReconcile,omitempty"`
}

// Summary carries the denormalized order-level aggregates. Each field must
// always equal the sum over the order's items.
type Summary struct {
	TotalItemsCount int           `json:"totalItemsCount"`
	TotalWeightKg   int           `json:"totalWeightKg"`
	Subtotal        pricing.Money `json:"subtotalBeforeDiscount"`
	TotalDiscount   pricing.Money `json:"totalDiscountAmount"`
}

// Order is the purchase aggregate. Items live in their own rows; the inline
// summary is derived from them at build time.
type Order struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customerId"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	Address       string        `json:"address,omitempty"`
	Status        Status        `json:"status"`
	Summary       Summary       `json:"summary"`
	TotalPrice    pricing.Money `json:"totalPrice"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Summarize derives the order-level aggregates from built items.
func Summarize(items []Item) Summary {
	var s Summary
	for _, it := range items {
		s.TotalItemsCount += it.Bags.TotalBags()
		s.TotalWeightKg += it.QuantityKg
		s.Subtotal += it.Subtotal
		s.TotalDiscount += it.Subtotal - it.Total
	}
	return s
}
