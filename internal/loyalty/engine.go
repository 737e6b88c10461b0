package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawahraya/backend-beras/internal/events"
	"github.com/sawahraya/backend-beras/internal/store"
)

// Errors returned by the engine.
var (
	ErrNotConfigured = errors.New("loyalty: engine not configured")
	ErrNotFound      = errors.New("loyalty: record not found")
	ErrCodeMismatch  = errors.New("loyalty: code does not match")
	ErrNotActive     = errors.New("loyalty: no active code")
)

// Outcome labels what Evaluate did, for logs and metrics.
type Outcome string

const (
	OutcomeNotQualified Outcome = "not_qualified"
	OutcomeIssued       Outcome = "issued"
	OutcomeReplayed     Outcome = "replayed"
	OutcomeSuperseded   Outcome = "superseded"
)

// Result is an evaluation verdict plus the record it settled on, nil when the
// customer does not qualify.
type Result struct {
	Outcome Outcome
	Record  *Record
}

// OrderSource supplies the server-side history rollup qualification runs on.
type OrderSource interface {
	AggregateFor(ctx context.Context, customerID string) (Aggregate, error)
}

// Metrics receives evaluation outcomes. Satisfied by obs.DomainMetrics.
type Metrics interface {
	LoyaltyEvaluated(outcome string)
}

// Engine issues and redeems discount codes. Issuance is idempotent per
// qualifying order: concurrent evaluations for the same order converge on a
// single record through the store's conditional writes.
type Engine struct {
	Store   store.Store
	Orders  OrderSource
	Policy  Policy
	Events  *events.Bus
	Metrics Metrics
	Logger  *zerolog.Logger

	// Now is injectable for tests.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

const supersedeRetries = 2

// Evaluate re-checks the customer's history after the given order and issues,
// replays, or supersedes their discount code. Safe to call any number of
// times with the same order id.
func (e *Engine) Evaluate(ctx context.Context, customerID, orderID string) (Result, error) {
	if e == nil || e.Store == nil || e.Orders == nil {
		return Result{}, ErrNotConfigured
	}
	agg, err := e.Orders.AggregateFor(ctx, customerID)
	if err != nil {
		return Result{}, fmt.Errorf("loyalty: aggregate history: %w", err)
	}
	if !e.Policy.Qualifies(agg) {
		e.observe(OutcomeNotQualified)
		return Result{Outcome: OutcomeNotQualified}, nil
	}

	res, err := e.issue(ctx, customerID, orderID, agg)
	if err != nil {
		return Result{}, err
	}
	e.observe(res.Outcome)
	if res.Outcome != OutcomeReplayed {
		e.emit(ctx, events.TopicLoyaltyIssued, res.Record, agg.Email)
	}
	return res, nil
}

func (e *Engine) issue(ctx context.Context, customerID, orderID string, agg Aggregate) (Result, error) {
	for attempt := 0; ; attempt++ {
		row, err := e.Store.Get(ctx, store.TableLoyaltyRecords, customerID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			rec, err := e.freshRecord(ctx, customerID, orderID, agg)
			if err != nil {
				return Result{}, err
			}
			if _, err := e.Store.CreateIfAbsent(ctx, store.TableLoyaltyRecords, customerID, rec); err != nil {
				if errors.Is(err, store.ErrConflict) && attempt < supersedeRetries {
					// Lost the insert race. Re-read and settle on the winner.
					continue
				}
				return Result{}, fmt.Errorf("loyalty: create record: %w", err)
			}
			return Result{Outcome: OutcomeIssued, Record: &rec}, nil
		case err != nil:
			return Result{}, fmt.Errorf("loyalty: load record: %w", err)
		}

		var existing Record
		if err := row.Decode(&existing); err != nil {
			return Result{}, fmt.Errorf("loyalty: decode record: %w", err)
		}
		if existing.IssuedFor(orderID) {
			// Replay for the order that produced the current code.
			return Result{Outcome: OutcomeReplayed, Record: &existing}, nil
		}

		next, err := e.supersede(ctx, existing, orderID, agg)
		if err != nil {
			return Result{}, err
		}
		if _, err := e.Store.Update(ctx, store.TableLoyaltyRecords, customerID, next, row.Revision); err != nil {
			if errors.Is(err, store.ErrConflict) && attempt < supersedeRetries {
				continue
			}
			return Result{}, fmt.Errorf("loyalty: supersede record: %w", err)
		}
		return Result{Outcome: OutcomeSuperseded, Record: &next}, nil
	}
}

// freshRecord builds a first-time record, state flows NONE -> PENDING_ISSUE ->
// ISSUED entirely in memory; only ISSUED is ever written.
func (e *Engine) freshRecord(ctx context.Context, customerID, orderID string, agg Aggregate) (Record, error) {
	code, err := e.uniqueCode(ctx)
	if err != nil {
		return Record{}, err
	}
	return Record{
		CustomerID:         customerID,
		Code:               code,
		DiscountBps:        e.Policy.DiscountBps,
		ExtraDiscountBps:   e.Policy.ExtraBps,
		QualifyingOrderIDs: []string{orderID},
		State:              StateIssued,
		IssuedAt:           e.now(),
		SpendAtIssue:       agg.Spend,
	}, nil
}

// supersede replaces the current code with a fresh one for a newer qualifying
// order. A redeemed record starts a new cycle; an unredeemed code is simply
// discarded, codes never stack.
func (e *Engine) supersede(ctx context.Context, prev Record, orderID string, agg Aggregate) (Record, error) {
	code, err := e.uniqueCode(ctx)
	if err != nil {
		return Record{}, err
	}
	next := prev
	next.Code = code
	next.DiscountBps = e.Policy.DiscountBps
	next.ExtraDiscountBps = e.Policy.ExtraBps
	next.QualifyingOrderIDs = append(append([]string(nil), prev.QualifyingOrderIDs...), orderID)
	next.State = StateIssued
	next.IssuedAt = e.now()
	next.RedeemedAt = nil
	next.SpendAtIssue = agg.Spend
	return next, nil
}

const codeAttempts = 5

// uniqueCode draws codes until one is unused among stored records.
func (e *Engine) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		rows, err := e.Store.List(ctx, store.TableLoyaltyRecords, store.Eq("code", code))
		if err != nil {
			return "", fmt.Errorf("loyalty: check code collision: %w", err)
		}
		if len(rows) == 0 {
			return code, nil
		}
	}
	return "", errors.New("loyalty: exhausted code attempts")
}

// ActiveFor returns the customer's live code, ErrNotActive when there is none.
func (e *Engine) ActiveFor(ctx context.Context, customerID string) (Record, error) {
	if e == nil || e.Store == nil {
		return Record{}, ErrNotConfigured
	}
	row, err := e.Store.Get(ctx, store.TableLoyaltyRecords, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loyalty: load record: %w", err)
	}
	var rec Record
	if err := row.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("loyalty: decode record: %w", err)
	}
	if !rec.Active() {
		return Record{}, ErrNotActive
	}
	return rec, nil
}

// Redeem marks the customer's active code as used. The revision check makes a
// concurrent supersede lose or win cleanly rather than silently merging.
func (e *Engine) Redeem(ctx context.Context, customerID, code string) (Record, error) {
	if e == nil || e.Store == nil {
		return Record{}, ErrNotConfigured
	}
	row, err := e.Store.Get(ctx, store.TableLoyaltyRecords, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loyalty: load record: %w", err)
	}
	var rec Record
	if err := row.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("loyalty: decode record: %w", err)
	}
	if !rec.Active() {
		return Record{}, ErrNotActive
	}
	if rec.Code != code {
		return Record{}, ErrCodeMismatch
	}
	now := e.now()
	rec.State = StateRedeemed
	rec.RedeemedAt = &now
	if _, err := e.Store.Update(ctx, store.TableLoyaltyRecords, customerID, rec, row.Revision); err != nil {
		return Record{}, fmt.Errorf("loyalty: redeem record: %w", err)
	}
	e.emit(ctx, events.TopicLoyaltyRedeemed, &rec, e.contactFor(ctx, customerID))
	return rec, nil
}

// contactFor resolves the customer's notification address from their order
// history. Best effort: redemption proceeds fine without one.
func (e *Engine) contactFor(ctx context.Context, customerID string) string {
	if e.Orders == nil {
		return ""
	}
	agg, err := e.Orders.AggregateFor(ctx, customerID)
	if err != nil {
		return ""
	}
	return agg.Email
}

// codeEvent is the notification payload: the record plus the contact address
// the record itself does not carry.
type codeEvent struct {
	Record
	CustomerEmail string `json:"customerEmail,omitempty"`
}

func (e *Engine) emit(ctx context.Context, topic string, rec *Record, email string) {
	if e.Events == nil || rec == nil {
		return
	}
	if _, err := e.Events.Emit(ctx, topic, rec.CustomerID, codeEvent{Record: *rec, CustomerEmail: email}); err != nil && e.Logger != nil {
		e.Logger.Error().Err(err).Str("topic", topic).Str("customer_id", rec.CustomerID).Msg("loyalty event emit failed")
	}
}

func (e *Engine) observe(o Outcome) {
	if e.Metrics != nil {
		e.Metrics.LoyaltyEvaluated(string(o))
	}
}
