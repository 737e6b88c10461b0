package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Tier labels the volume break that produced a per-kg price.
type Tier string

// Volume tiers, highest first. Threshold evaluation must stay top-down:
// reordering changes effective prices at boundary quantities.
const (
	TierNone   Tier = ""
	Tier2to4   Tier = "2-4kg"
	Tier5to9   Tier = "5-9kg"
	Tier10Plus Tier = "10kg+"
)

// TierTable carries a product's per-kg pricing. Tier prices are optional; a
// nil entry means the base price applies even when the quantity qualifies.
type TierTable struct {
	BasePerKg Money
	HasTiers  bool
	Tier2to4  *Money
	Tier5to9  *Money
	Tier10Up  *Money
}

// Quote aggregates the computed pricing components for one line.
type Quote struct {
	QuantityKg int
	PricePerKg Money
	Total      Money
	Original   Money
	Savings    Money
	SavingsBps int64
	Tier       Tier
}

// PerKg resolves the effective per-kg price for the quantity. Strict
// thresholds, highest qualifying tier wins. A zero quantity is looked up as 1
// so display contexts never hit a degenerate tier.
func PerKg(t TierTable, quantityKg int) (Money, Tier) {
	if !t.HasTiers {
		return t.BasePerKg, TierNone
	}
	if quantityKg < 1 {
		quantityKg = 1
	}
	switch {
	case quantityKg >= 10 && t.Tier10Up != nil:
		return *t.Tier10Up, Tier10Plus
	case quantityKg >= 5 && t.Tier5to9 != nil:
		return *t.Tier5to9, Tier5to9
	case quantityKg >= 2 && t.Tier2to4 != nil:
		return *t.Tier2to4, Tier2to4
	default:
		return t.BasePerKg, TierNone
	}
}

// ForQuantity computes the full quote for a quantity. Evaluated fresh on
// every call; tier eligibility depends on the quantity, so quotes are never
// cached across quantity changes.
func ForQuantity(t TierTable, quantityKg int) Quote {
	perKg, tier := PerKg(t, quantityKg)
	q := Quote{QuantityKg: quantityKg, PricePerKg: perKg, Tier: tier}
	if quantityKg <= 0 {
		return q
	}
	q.Total = perKg * Money(quantityKg)
	q.Original = t.BasePerKg * Money(quantityKg)
	q.Savings = q.Original - q.Total
	if q.Savings < 0 {
		// Tier price above base is a business-data anomaly, not a fault;
		// report zero savings and keep the computed total.
		q.Savings = 0
	}
	if q.Original > 0 {
		q.SavingsBps = q.Savings * 10000 / q.Original
	}
	return q
}

// SavingsPercent renders the savings share as a percentage.
func (q Quote) SavingsPercent() float64 {
	return float64(q.SavingsBps) / 100
}
