package order

import (
	"fmt"
	"strings"
)

// Status is the order lifecycle state.
type Status string

// Order statuses. The forward path is pending → accepted → out_for_delivery
// → delivered; returned is a terminal branch reachable from any non-terminal
// state via admin action.
const (
	StatusPending        Status = "pending"
	StatusAccepted       Status = "accepted"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusReturned       Status = "returned"
)

// ParseStatus normalises an external status label.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusOutForDelivery:
		return StatusOutForDelivery, nil
	case StatusDelivered:
		return StatusDelivered, nil
	case StatusReturned:
		return StatusReturned, nil
	default:
		return "", fmt.Errorf("unknown order status %q", raw)
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// CanTransition reports whether the move from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusReturned {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAccepted
	case StatusAccepted:
		return next == StatusOutForDelivery
	case StatusOutForDelivery:
		return next == StatusDelivered
	default:
		return false
	}
}
