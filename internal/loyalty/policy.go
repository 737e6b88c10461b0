package loyalty

import "github.com/sawahraya/backend-beras/internal/pricing"

// Default thresholds and discounts, overridable via config.
const (
	DefaultMinOrders   = 3
	DefaultMinSpend    = pricing.Money(500)
	DefaultDiscountBps = 1000
	DefaultExtraBps    = 500
)

// Policy decides when a customer's purchase history earns a discount code.
// Both thresholds must be met.
type Policy struct {
	MinOrders   int
	MinSpend    pricing.Money
	DiscountBps int64
	ExtraBps    int64
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinOrders:   DefaultMinOrders,
		MinSpend:    DefaultMinSpend,
		DiscountBps: DefaultDiscountBps,
		ExtraBps:    DefaultExtraBps,
	}
}

// Aggregate is a customer's order history rollup, recomputed server side at
// evaluation time. Client-supplied counts are never trusted. Email is the
// contact address from the most recent order; notification payloads carry it
// because the loyalty record itself stores no address.
type Aggregate struct {
	Orders int
	Spend  pricing.Money
	Email  string
}

// Qualifies reports whether the rollup clears both thresholds.
func (p Policy) Qualifies(agg Aggregate) bool {
	return agg.Orders >= p.MinOrders && agg.Spend >= p.MinSpend
}
