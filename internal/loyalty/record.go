package loyalty

import (
	"time"

	"github.com/sawahraya/backend-beras/internal/pricing"
)

// State is the per-customer reward lifecycle.
type State string

// Reward states. PendingIssue is the in-flight window between qualification
// and a successful persist; it is never stored. A crash inside it re-runs
// evaluation, which the idempotent issuance absorbs.
const (
	StateNone         State = "none"
	StatePendingIssue State = "pending_issue"
	StateIssued       State = "issued"
	StateRedeemed     State = "redeemed"
)

// Record tracks one customer's reward. There is at most one per customer; a
// newer qualifying order replaces an unredeemed code, it never stacks.
type Record struct {
	CustomerID         string        `json:"customerId"`
	Code               string        `json:"code"`
	DiscountBps        int64         `json:"discountBps"`
	ExtraDiscountBps   int64         `json:"extraDiscountBps"`
	QualifyingOrderIDs []string      `json:"qualifyingOrderIds"`
	State              State         `json:"state"`
	IssuedAt           time.Time     `json:"issuedAt"`
	RedeemedAt         *time.Time    `json:"redeemedAt,omitempty"`
	SpendAtIssue       pricing.Money `json:"spendAtIssue"`
}

// LastQualifyingOrder returns the most recent order that triggered issuance.
func (r Record) LastQualifyingOrder() string {
	if len(r.QualifyingOrderIDs) == 0 {
		return ""
	}
	return r.QualifyingOrderIDs[len(r.QualifyingOrderIDs)-1]
}

// IssuedFor reports whether this record's current code was issued for the
// given order. Replays for that order must return the record unchanged.
func (r Record) IssuedFor(orderID string) bool {
	return r.LastQualifyingOrder() == orderID
}

// Active reports whether the code is issued and not yet redeemed.
func (r Record) Active() bool {
	return r.State == StateIssued
}
