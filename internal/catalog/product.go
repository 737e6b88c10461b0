package catalog

import (
	"errors"
	"strings"

	"github.com/sawahraya/backend-beras/internal/pricing"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidInput is returned when a product payload fails validation.
var ErrInvalidInput = errors.New("invalid product")

// Product is a catalog entry for one rice variety. Prices are per-kg minor
// units; tier prices are optional volume breaks.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name" validate:"required"`
	Description    string         `json:"description"`
	BasePricePerKg pricing.Money  `json:"basePricePerKg" validate:"required,gt=0"`
	HasTierPricing bool           `json:"hasTierPricing"`
	Tier2to4Price  *pricing.Money `json:"tier2to4Price,omitempty"`
	Tier5to9Price  *pricing.Money `json:"tier5to9Price,omitempty"`
	Tier10UpPrice  *pricing.Money `json:"tier10UpPrice,omitempty"`
}

// TierTable projects the product into the pricing engine's input.
func (p Product) TierTable() pricing.TierTable {
	return pricing.TierTable{
		BasePerKg: p.BasePricePerKg,
		HasTiers:  p.HasTierPricing,
		Tier2to4:  p.Tier2to4Price,
		Tier5to9:  p.Tier5to9Price,
		Tier10Up:  p.Tier10UpPrice,
	}
}

// Check validates structural requirements. Tier prices above base are
// accepted (business-data anomaly, surfaced via Anomalies, never a failure).
func (p Product) Check() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.BasePricePerKg <= 0 {
		return errors.New("basePricePerKg must be positive")
	}
	if p.HasTierPricing && p.Tier2to4Price == nil && p.Tier5to9Price == nil && p.Tier10UpPrice == nil {
		return errors.New("tier pricing enabled but no tier price set")
	}
	return nil
}

// Anomalies reports tier prices that are not a volume discount. These are
// logged for the catalog admin, not rejected.
func (p Product) Anomalies() []string {
	if !p.HasTierPricing {
		return nil
	}
	var out []string
	check := func(label string, price *pricing.Money) {
		if price != nil && *price > p.BasePricePerKg {
			out = append(out, label+" price exceeds base price")
		}
	}
	check("2-4kg", p.Tier2to4Price)
	check("5-9kg", p.Tier5to9Price)
	check("10kg+", p.Tier10UpPrice)
	return out
}
