package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sawahraya/backend-beras/internal/catalog"
	"github.com/sawahraya/backend-beras/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ProductSource resolves live product data for price recomputation. The cart
// never caches prices: a stale cart must not serve stale prices.
type ProductSource interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Item is one product line in a cart. Quantity is always derived from Bags.
type Item struct {
	ProductID string     `json:"productId"`
	Bags      *BagCounts `json:"bags"`
	// Quantity mirrors Bags.Quantity() in the stored form so older readers
	// keep working; it is recomputed on every load and mutation.
	Quantity int `json:"quantity"`
}

// Cart is client-scoped mutable state: a collection of items keyed by
// product id. It holds no prices.
type Cart struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

// Normalize upgrades legacy quantity-only items by attaching a zeroed bag
// structure and re-derives every quantity. One-time defensive path for carts
// persisted before bags existed.
func (c *Cart) Normalize() {
	for i := range c.Items {
		if c.Items[i].Bags == nil {
			c.Items[i].Bags = &BagCounts{}
		}
		c.Items[i].Quantity = c.Items[i].Bags.Quantity()
	}
}

func (c *Cart) find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddBag adds one bag of the size to the product's line, creating the line on
// first add.
func (c *Cart) AddBag(productID string, size BagSize) error {
	if productID == "" {
		return errors.New("product id is required")
	}
	idx := c.find(productID)
	if idx < 0 {
		counts, err := BagCounts{}.Add(size)
		if err != nil {
			return err
		}
		c.Items = append(c.Items, Item{ProductID: productID, Bags: &counts, Quantity: counts.Quantity()})
		return nil
	}
	if c.Items[idx].Bags == nil {
		c.Items[idx].Bags = &BagCounts{}
	}
	counts, err := c.Items[idx].Bags.Add(size)
	if err != nil {
		return err
	}
	c.Items[idx].Bags = &counts
	c.Items[idx].Quantity = counts.Quantity()
	return nil
}

// RemoveBag removes one bag of the size from the product's line. When the
// derived quantity reaches zero the line is deleted; the cart never holds
// zero-quantity ghost entries. Removing from an absent line is a no-op.
func (c *Cart) RemoveBag(productID string, size BagSize) error {
	if !size.Valid() {
		return fmt.Errorf("%d kg: %w", size.Kg(), ErrInvalidBagSize)
	}
	idx := c.find(productID)
	if idx < 0 {
		return nil
	}
	if c.Items[idx].Bags == nil {
		c.Items[idx].Bags = &BagCounts{}
	}
	counts, err := c.Items[idx].Bags.Remove(size)
	if err != nil {
		return err
	}
	if counts.Quantity() == 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	}
	c.Items[idx].Bags = &counts
	c.Items[idx].Quantity = counts.Quantity()
	return nil
}

// RemoveItem deletes a product line outright.
func (c *Cart) RemoveItem(productID string) {
	if idx := c.find(productID); idx >= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalItems is the count of discrete bags across all lines (cart badge),
// not a kg sum.
func (c *Cart) TotalItems() int {
	var total int
	for _, it := range c.Items {
		if it.Bags != nil {
			total += it.Bags.TotalBags()
		}
	}
	return total
}

// TotalWeightKg sums the derived quantities.
func (c *Cart) TotalWeightKg() int {
	var total int
	for _, it := range c.Items {
		if it.Bags != nil {
			total += it.Bags.Quantity()
		}
	}
	return total
}

// Line is a priced view of one cart item.
type Line struct {
	ProductID   string        `json:"productId"`
	ProductName string        `json:"productName"`
	Bags        BagCounts     `json:"bags"`
	Quote       pricing.Quote `json:"quote"`
	Missing     bool          `json:"missing,omitempty"`
}

// Summary is the priced view of the whole cart.
type Summary struct {
	Lines      []Line        `json:"lines"`
	TotalItems int           `json:"totalItems"`
	TotalKg    int           `json:"totalKg"`
	Total      pricing.Money `json:"total"`
	Savings    pricing.Money `json:"savings"`
}

// Price recomputes every line against live product data. Product tier changes
// therefore change the cart total without any cart mutation. A product that
// disappeared mid-session prices to zero and is flagged, never fatal.
func (c *Cart) Price(ctx context.Context, src ProductSource) (Summary, error) {
	if src == nil {
		return Summary{}, errors.New("cart: product source not configured")
	}
	summary := Summary{TotalItems: c.TotalItems(), TotalKg: c.TotalWeightKg()}
	for _, it := range c.Items {
		if it.Bags == nil {
			continue
		}
		line := Line{ProductID: it.ProductID, Bags: *it.Bags}
		product, err := src.Product(ctx, it.ProductID)
		switch {
		case err == nil:
			line.ProductName = product.Name
			line.Quote = pricing.ForQuantity(product.TierTable(), it.Bags.Quantity())
		case errors.Is(err, catalog.ErrNotFound):
			line.Missing = true
			line.Quote = pricing.Quote{QuantityKg: it.Bags.Quantity()}
		default:
			return Summary{}, fmt.Errorf("cart: price product %s: %w", it.ProductID, err)
		}
		summary.Total += line.Quote.Total
		summary.Savings += line.Quote.Savings
		summary.Lines = append(summary.Lines, line)
	}
	return summary, nil
}
