package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/sawahraya/backend-beras/internal/order"
)

// OrderHistory adapts the order service into the rollup the engine evaluates.
type OrderHistory struct {
	Orders *order.Service
}

// AggregateFor sums the customer's orders. Returned orders still count toward
// the order total; the spend they represent was real.
func (h OrderHistory) AggregateFor(ctx context.Context, customerID string) (Aggregate, error) {
	if h.Orders == nil {
		return Aggregate{}, ErrNotConfigured
	}
	orders, err := h.Orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return Aggregate{}, fmt.Errorf("loyalty: list orders: %w", err)
	}
	agg := Aggregate{Orders: len(orders)}
	var latest time.Time
	for _, o := range orders {
		agg.Spend += o.TotalPrice
		if o.CustomerEmail != "" && !o.CreatedAt.Before(latest) {
			latest = o.CreatedAt
			agg.Email = o.CustomerEmail
		}
	}
	return agg, nil
}
