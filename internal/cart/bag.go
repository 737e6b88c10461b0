package cart

import (
	"errors"
	"fmt"
)

// ErrInvalidBagSize is returned for any bag size outside the fixed set.
var ErrInvalidBagSize = errors.New("invalid bag size")

// BagSize is a discrete purchasable bag weight. The set is closed: rice is
// sold in 1, 5, 10 and 25 kg bags and nothing else.
type BagSize int

// Supported bag sizes.
const (
	Bag1Kg  BagSize = 1
	Bag5Kg  BagSize = 5
	Bag10Kg BagSize = 10
	Bag25Kg BagSize = 25
)

// BagSizes lists the supported sizes in ascending order.
func BagSizes() []BagSize {
	return []BagSize{Bag1Kg, Bag5Kg, Bag10Kg, Bag25Kg}
}

// ParseBagSize validates an integer as a bag size. Unknown sizes are a usage
// error, never coerced.
func ParseBagSize(kg int) (BagSize, error) {
	switch BagSize(kg) {
	case Bag1Kg, Bag5Kg, Bag10Kg, Bag25Kg:
		return BagSize(kg), nil
	default:
		return 0, fmt.Errorf("%d kg: %w", kg, ErrInvalidBagSize)
	}
}

// Kg returns the weight of the bag.
func (s BagSize) Kg() int { return int(s) }

// Valid reports whether the size belongs to the closed set.
func (s BagSize) Valid() bool {
	_, err := ParseBagSize(int(s))
	return err == nil
}

// BagCounts tracks how many bags of each size an item holds. The total
// quantity in kg is always derived from these counts, never stored
// independently, so the two cannot diverge.
type BagCounts struct {
	Kg1  int `json:"kg1"`
	Kg5  int `json:"kg5"`
	Kg10 int `json:"kg10"`
	Kg25 int `json:"kg25"`
}

// Quantity is the derived weight in kg.
func (b BagCounts) Quantity() int {
	return b.Kg1*1 + b.Kg5*5 + b.Kg10*10 + b.Kg25*25
}

// TotalBags counts the discrete bags, used for the cart badge.
func (b BagCounts) TotalBags() int {
	return b.Kg1 + b.Kg5 + b.Kg10 + b.Kg25
}

// Add increments the count for the size.
func (b BagCounts) Add(size BagSize) (BagCounts, error) {
	if !size.Valid() {
		return b, fmt.Errorf("%d kg: %w", size.Kg(), ErrInvalidBagSize)
	}
	switch size {
	case Bag1Kg:
		b.Kg1++
	case Bag5Kg:
		b.Kg5++
	case Bag10Kg:
		b.Kg10++
	case Bag25Kg:
		b.Kg25++
	}
	return b, nil
}

// Remove decrements the count for the size, floored at zero. Removing from an
// empty slot is a no-op, not an error.
func (b BagCounts) Remove(size BagSize) (BagCounts, error) {
	if !size.Valid() {
		return b, fmt.Errorf("%d kg: %w", size.Kg(), ErrInvalidBagSize)
	}
	dec := func(v int) int {
		if v > 0 {
			return v - 1
		}
		return v
	}
	switch size {
	case Bag1Kg:
		b.Kg1 = dec(b.Kg1)
	case Bag5Kg:
		b.Kg5 = dec(b.Kg5)
	case Bag10Kg:
		b.Kg10 = dec(b.Kg10)
	case Bag25Kg:
		b.Kg25 = dec(b.Kg25)
	}
	return b, nil
}
