package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sawahraya/backend-beras/internal/catalog"
	"github.com/sawahraya/backend-beras/internal/cart"
	"github.com/sawahraya/backend-beras/internal/pricing"
)

// Builder freezes cart lines into order item snapshots at checkout commit.
type Builder struct {
	Products cart.ProductSource
}

// BuildResult reports what the builder produced.
type BuildResult struct {
	Items   []Item
	Summary Summary
	// Placeholders counts lines snapshotted as Unknown Product; they are
	// flagged for manual reconciliation, never a reason to abort the order.
	Placeholders int
}

// BuildItems snapshots every cart line against the current product data.
// discountBps, when positive, applies an explicit order-wide discount (e.g. a
// redeemed loyalty code) to each line's total. A missing product yields a
// placeholder item and processing continues with the siblings: the failure
// policy is partial success, never all-or-nothing.
func (b Builder) BuildItems(ctx context.Context, c *cart.Cart, orderID string, discountBps int64) (BuildResult, error) {
	if b.Products == nil {
		return BuildResult{}, errors.New("order builder: product source not configured")
	}
	if c == nil || len(c.Items) == 0 {
		return BuildResult{}, errors.New("order builder: cart is empty")
	}
	if discountBps < 0 {
		discountBps = 0
	}
	var result BuildResult
	for _, line := range c.Items {
		if line.Bags == nil || line.Bags.Quantity() == 0 {
			continue
		}
		item := Item{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ProductID:  line.ProductID,
			Bags:       *line.Bags,
			QuantityKg: line.Bags.Quantity(),
		}
		product, err := b.Products.Product(ctx, line.ProductID)
		switch {
		case err == nil:
			quote := pricing.ForQuantity(product.TierTable(), item.QuantityKg)
			item.ProductName = product.Name
			item.ProductDescription = product.Description
			item.PricePerKg = quote.PricePerKg
			item.BasePricePerKg = product.BasePricePerKg
			item.TierApplied = quote.Tier
			if quote.Tier != pricing.TierNone {
				tierPrice := quote.PricePerKg
				item.TierPrice = &tierPrice
			}
			item.Subtotal = quote.Total
			item.DiscountBps = discountBps
			item.DiscountAmount = quote.Total * discountBps / 10000
			item.Total = quote.Total - item.DiscountAmount
		case errors.Is(err, catalog.ErrNotFound):
			item.ProductName = UnknownProductName
			item.NeedsReconcile = true
			item.Notes = "product missing at checkout; needs manual reconciliation"
			result.Placeholders++
		default:
			return BuildResult{}, fmt.Errorf("order builder: load product %s: %w", line.ProductID, err)
		}
		result.Items = append(result.Items, item)
	}
	if len(result.Items) == 0 {
		return BuildResult{}, errors.New("order builder: no priceable lines")
	}
	result.Summary = Summarize(result.Items)
	return result, nil
}
