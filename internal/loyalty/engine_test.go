package loyalty

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sawahraya/backend-beras/internal/common"
	"github.com/sawahraya/backend-beras/internal/events"
	"github.com/sawahraya/backend-beras/internal/notify"
	"github.com/sawahraya/backend-beras/internal/store"
)

type stubOrders struct {
	agg Aggregate
	err error
}

func (s stubOrders) AggregateFor(context.Context, string) (Aggregate, error) {
	return s.agg, s.err
}

func testEngine(mem *store.Mem, agg Aggregate) *Engine {
	return &Engine{
		Store:  mem,
		Orders: stubOrders{agg: agg},
		Policy: DefaultPolicy(),
		Now:    func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func qualifying() Aggregate {
	return Aggregate{Orders: DefaultMinOrders, Spend: DefaultMinSpend}
}

func TestEvaluateNotQualified(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, Aggregate{Orders: 1, Spend: 100})

	res, err := eng.Evaluate(context.Background(), "cust-1", "ord-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Outcome != OutcomeNotQualified || res.Record != nil {
		t.Fatalf("got outcome %q record %v, want not qualified", res.Outcome, res.Record)
	}
	if mem.Count(store.TableLoyaltyRecords) != 0 {
		t.Fatal("not-qualified evaluation must not write")
	}
}

func TestEvaluateBothThresholdsRequired(t *testing.T) {
	cases := []Aggregate{
		{Orders: DefaultMinOrders, Spend: DefaultMinSpend - 1},
		{Orders: DefaultMinOrders - 1, Spend: DefaultMinSpend},
	}
	for _, agg := range cases {
		mem := store.NewMem()
		res, err := testEngine(mem, agg).Evaluate(context.Background(), "cust-1", "ord-1")
		if err != nil {
			t.Fatalf("evaluate(%+v): %v", agg, err)
		}
		if res.Outcome != OutcomeNotQualified {
			t.Fatalf("aggregate %+v qualified, want not qualified", agg)
		}
	}
}

func TestEvaluateFirstIssuance(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())

	res, err := eng.Evaluate(context.Background(), "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Outcome != OutcomeIssued {
		t.Fatalf("outcome = %q, want issued", res.Outcome)
	}
	rec := res.Record
	if rec == nil {
		t.Fatal("no record returned")
	}
	if rec.State != StateIssued {
		t.Fatalf("state = %q, want issued", rec.State)
	}
	if len(rec.Code) != codeLength {
		t.Fatalf("code %q has length %d, want %d", rec.Code, len(rec.Code), codeLength)
	}
	for _, c := range rec.Code {
		if (c < 'A' || c > 'Z') && (c < '2' || c > '9') {
			t.Fatalf("code %q contains unexpected character %q", rec.Code, c)
		}
	}
	if rec.DiscountBps != DefaultDiscountBps || rec.ExtraDiscountBps != DefaultExtraBps {
		t.Fatalf("discounts = %d/%d, want %d/%d", rec.DiscountBps, rec.ExtraDiscountBps, DefaultDiscountBps, DefaultExtraBps)
	}
	if rec.LastQualifyingOrder() != "ord-3" {
		t.Fatalf("qualifying order = %q, want ord-3", rec.LastQualifyingOrder())
	}
	if mem.Count(store.TableLoyaltyRecords) != 1 {
		t.Fatalf("record count = %d, want 1", mem.Count(store.TableLoyaltyRecords))
	}
}

func TestEvaluateReplaySameOrder(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	first, err := eng.Evaluate(ctx, "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := eng.Evaluate(ctx, "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.Outcome != OutcomeReplayed {
		t.Fatalf("outcome = %q, want replayed", second.Outcome)
	}
	if second.Record.Code != first.Record.Code {
		t.Fatalf("replay changed code %q -> %q", first.Record.Code, second.Record.Code)
	}
	if mem.Count(store.TableLoyaltyRecords) != 1 {
		t.Fatalf("record count = %d, want 1", mem.Count(store.TableLoyaltyRecords))
	}
}

func TestEvaluateSupersedesNewerOrder(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	first, err := eng.Evaluate(ctx, "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := eng.Evaluate(ctx, "cust-1", "ord-4")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.Outcome != OutcomeSuperseded {
		t.Fatalf("outcome = %q, want superseded", second.Outcome)
	}
	if second.Record.Code == first.Record.Code {
		t.Fatal("supersede kept the old code")
	}
	if got := second.Record.QualifyingOrderIDs; len(got) != 2 || got[0] != "ord-3" || got[1] != "ord-4" {
		t.Fatalf("qualifying orders = %v, want [ord-3 ord-4]", got)
	}
	if mem.Count(store.TableLoyaltyRecords) != 1 {
		t.Fatal("supersede must replace, not add, records")
	}
}

func TestRedeemThenNewCycle(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	issued, err := eng.Evaluate(ctx, "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	redeemed, err := eng.Redeem(ctx, "cust-1", issued.Record.Code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redeemed.State != StateRedeemed || redeemed.RedeemedAt == nil {
		t.Fatalf("redeemed record = %+v", redeemed)
	}
	if _, err := eng.ActiveFor(ctx, "cust-1"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("ActiveFor after redeem = %v, want ErrNotActive", err)
	}

	// A later qualifying order starts a fresh cycle with a new code.
	next, err := eng.Evaluate(ctx, "cust-1", "ord-4")
	if err != nil {
		t.Fatalf("evaluate after redeem: %v", err)
	}
	if next.Record.State != StateIssued || next.Record.RedeemedAt != nil {
		t.Fatalf("new cycle record = %+v", next.Record)
	}
	if next.Record.Code == issued.Record.Code {
		t.Fatal("new cycle reused the redeemed code")
	}
}

func TestRedeemRejectsWrongCode(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	if _, err := eng.Evaluate(ctx, "cust-1", "ord-3"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := eng.Redeem(ctx, "cust-1", "WRONGCOD"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("redeem wrong code = %v, want ErrCodeMismatch", err)
	}
	if _, err := eng.Redeem(ctx, "cust-2", "WRONGCOD"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("redeem unknown customer = %v, want ErrNotFound", err)
	}
}

func TestEvaluateConcurrentCreateConvergesOnOneRecord(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	// A rival evaluation lands between our read and our insert. The loser's
	// CreateIfAbsent conflicts, re-reads, and replays the winner's record.
	var rival Result
	mem.BeforeWrite = func(table, id string) {
		if table != store.TableLoyaltyRecords {
			return
		}
		mem.BeforeWrite = nil
		var err error
		rival, err = eng.Evaluate(ctx, "cust-1", "ord-3")
		if err != nil {
			t.Fatalf("rival evaluate: %v", err)
		}
	}

	res, err := eng.Evaluate(ctx, "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Outcome != OutcomeReplayed {
		t.Fatalf("loser outcome = %q, want replayed", res.Outcome)
	}
	if rival.Outcome != OutcomeIssued {
		t.Fatalf("rival outcome = %q, want issued", rival.Outcome)
	}
	if res.Record.Code != rival.Record.Code {
		t.Fatalf("records diverged: %q vs %q", res.Record.Code, rival.Record.Code)
	}
	if mem.Count(store.TableLoyaltyRecords) != 1 {
		t.Fatalf("record count = %d, want 1", mem.Count(store.TableLoyaltyRecords))
	}
}

func TestEvaluateConcurrentSupersedeRetries(t *testing.T) {
	mem := store.NewMem()
	eng := testEngine(mem, qualifying())
	ctx := context.Background()

	if _, err := eng.Evaluate(ctx, "cust-1", "ord-3"); err != nil {
		t.Fatalf("seed evaluate: %v", err)
	}

	// A rival supersede bumps the revision between our read and our update, so
	// our first update conflicts and the retry runs against the fresh row.
	var rival Result
	mem.BeforeWrite = func(table, id string) {
		if table != store.TableLoyaltyRecords {
			return
		}
		mem.BeforeWrite = nil
		var err error
		rival, err = eng.Evaluate(ctx, "cust-1", "ord-4")
		if err != nil {
			t.Fatalf("rival evaluate: %v", err)
		}
	}

	res, err := eng.Evaluate(ctx, "cust-1", "ord-5")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rival.Outcome != OutcomeSuperseded || res.Outcome != OutcomeSuperseded {
		t.Fatalf("outcomes = %q / %q, want superseded / superseded", rival.Outcome, res.Outcome)
	}
	if res.Record.LastQualifyingOrder() != "ord-5" {
		t.Fatalf("final qualifying order = %q, want ord-5", res.Record.LastQualifyingOrder())
	}
	if mem.Count(store.TableLoyaltyRecords) != 1 {
		t.Fatalf("record count = %d, want 1", mem.Count(store.TableLoyaltyRecords))
	}
}

func TestEvaluateStoreFailureSurfaces(t *testing.T) {
	mem := store.NewMem()
	mem.FailNextWrite = errors.New("backing store down")
	eng := testEngine(mem, qualifying())

	if _, err := eng.Evaluate(context.Background(), "cust-1", "ord-3"); err == nil {
		t.Fatal("expected error when the store write fails")
	}
	if mem.Count(store.TableLoyaltyRecords) != 0 {
		t.Fatal("failed write must not leave a record")
	}
}

func TestEvaluateHistoryFailureSurfaces(t *testing.T) {
	eng := testEngine(store.NewMem(), qualifying())
	eng.Orders = stubOrders{err: errors.New("orders unavailable")}

	if _, err := eng.Evaluate(context.Background(), "cust-1", "ord-3"); err == nil {
		t.Fatal("expected error when history lookup fails")
	}
}

func TestEvaluateIssuanceEmailsCustomer(t *testing.T) {
	mem := store.NewMem()
	outbox := &common.InMemoryEmail{}
	agg := qualifying()
	agg.Email = "siti@example.com"

	eng := testEngine(mem, agg)
	eng.Events = &events.Bus{
		Store:     mem,
		Notifiers: []events.Notifier{notify.EmailNotifier{Mail: outbox, Enabled: true}},
		Now:       eng.Now,
	}

	res, err := eng.Evaluate(context.Background(), "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Outcome != OutcomeIssued {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeIssued)
	}

	if len(outbox.Outbox) != 1 {
		t.Fatalf("outbox has %d mails, want 1", len(outbox.Outbox))
	}
	mail := outbox.Outbox[0]
	if mail.To != "siti@example.com" {
		t.Fatalf("mail addressed to %q, want the customer's order email", mail.To)
	}
	if !strings.Contains(mail.HTML, res.Record.Code) {
		t.Fatalf("issuance mail should carry the code %s, body: %q", res.Record.Code, mail.HTML)
	}
}

func TestEvaluateIssuanceWithoutAddressSkipsEmail(t *testing.T) {
	mem := store.NewMem()
	outbox := &common.InMemoryEmail{}

	eng := testEngine(mem, qualifying())
	eng.Events = &events.Bus{
		Store:     mem,
		Notifiers: []events.Notifier{notify.EmailNotifier{Mail: outbox, Enabled: true}},
		Now:       eng.Now,
	}

	res, err := eng.Evaluate(context.Background(), "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Outcome != OutcomeIssued {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeIssued)
	}
	if len(outbox.Outbox) != 0 {
		t.Fatalf("no order carries an address, yet %d mails were sent", len(outbox.Outbox))
	}
}

func TestRedeemEmailsCustomer(t *testing.T) {
	mem := store.NewMem()
	outbox := &common.InMemoryEmail{}
	agg := qualifying()
	agg.Email = "siti@example.com"

	eng := testEngine(mem, agg)
	eng.Events = &events.Bus{
		Store:     mem,
		Notifiers: []events.Notifier{notify.EmailNotifier{Mail: outbox, Enabled: true}},
		Now:       eng.Now,
	}

	res, err := eng.Evaluate(context.Background(), "cust-1", "ord-3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := eng.Redeem(context.Background(), "cust-1", res.Record.Code); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if len(outbox.Outbox) != 2 {
		t.Fatalf("outbox has %d mails, want issuance plus redemption", len(outbox.Outbox))
	}
	if to := outbox.Outbox[1].To; to != "siti@example.com" {
		t.Fatalf("redemption mail addressed to %q", to)
	}
}
