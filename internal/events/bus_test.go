package events

import (
	"context"
	"errors"
	"testing"

	"github.com/sawahraya/backend-beras/internal/store"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	mem := store.NewMem()
	notifier := &recordingNotifier{}
	bus := &Bus{Store: mem, Notifiers: []Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, "order-1", map[string]any{"total": 1700})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if ev.Topic != TopicOrderCreated || ev.AggregateID != "order-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if mem.Count(store.TableDomainEvents) != 1 {
		t.Fatalf("expected one persisted event, got %d", mem.Count(store.TableDomainEvents))
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.events))
	}
}

func TestEmitNotifierFailureDoesNotUndoEvent(t *testing.T) {
	mem := store.NewMem()
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	bus := &Bus{Store: mem, Notifiers: []Notifier{notifier}}

	_, err := bus.Emit(context.Background(), TopicLoyaltyIssued, "cust-1", nil)
	if err == nil {
		t.Fatal("expected joined notifier error")
	}
	if mem.Count(store.TableDomainEvents) != 1 {
		t.Fatal("event must stay persisted despite notifier failure")
	}
}

func TestEmitValidation(t *testing.T) {
	bus := &Bus{Store: store.NewMem()}
	if _, err := bus.Emit(context.Background(), "", "agg", nil); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if _, err := bus.Emit(context.Background(), TopicOrderCreated, "", nil); err == nil {
		t.Fatal("expected error for empty aggregate id")
	}
	if _, err := bus.Emit(context.Background(), TopicOrderCreated, "agg", []byte("not-json")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}
