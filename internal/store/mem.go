package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Mem is an in-memory Store used by tests and the seeder dry-run. It mirrors
// the conditional-write semantics of PG, including ErrConflict on duplicate
// ids and revision mismatches.
type Mem struct {
	mu     sync.Mutex
	tables map[string]map[string]Row
	Now    func() time.Time

	// FailNextWrite makes the next Create/CreateIfAbsent/Update return the
	// given error, simulating an unavailable backing store.
	FailNextWrite error

	// BeforeWrite, when set, runs under the lock release between the encode
	// and the write, letting tests interleave concurrent writers.
	BeforeWrite func(table, id string)
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem {
	return &Mem{tables: map[string]map[string]Row{}}
}

func (m *Mem) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Mem) table(name string) map[string]Row {
	if m.tables == nil {
		m.tables = map[string]map[string]Row{}
	}
	t, ok := m.tables[name]
	if !ok {
		t = map[string]Row{}
		m.tables[name] = t
	}
	return t
}

// Get implements Store.
func (m *Mem) Get(_ context.Context, table, id string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.table(table)[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return row, nil
}

// List implements Store.
func (m *Mem) List(_ context.Context, table string, filters ...Filter) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Row
	for _, row := range m.table(table) {
		if matches(row, filters) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Create implements Store.
func (m *Mem) Create(ctx context.Context, table, id string, data any) (Row, error) {
	return m.insert(ctx, table, id, data)
}

// CreateIfAbsent implements Store.
func (m *Mem) CreateIfAbsent(ctx context.Context, table, id string, data any) (Row, error) {
	return m.insert(ctx, table, id, data)
}

func (m *Mem) insert(_ context.Context, table, id string, data any) (Row, error) {
	payload, err := encode(data)
	if err != nil {
		return Row{}, err
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(table, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeWriteFailure(); err != nil {
		return Row{}, err
	}
	t := m.table(table)
	if _, exists := t[id]; exists {
		return Row{}, ErrConflict
	}
	now := m.now()
	row := Row{ID: id, Revision: 1, Data: cloneJSON(payload), CreatedAt: now, UpdatedAt: now}
	t[id] = row
	return row, nil
}

// Update implements Store.
func (m *Mem) Update(_ context.Context, table, id string, data any, expectedRevision int64) (Row, error) {
	payload, err := encode(data)
	if err != nil {
		return Row{}, err
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(table, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeWriteFailure(); err != nil {
		return Row{}, err
	}
	t := m.table(table)
	row, ok := t[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	if expectedRevision != AnyRevision && row.Revision != expectedRevision {
		return Row{}, ErrConflict
	}
	row.Revision++
	row.Data = cloneJSON(payload)
	row.UpdatedAt = m.now()
	t[id] = row
	return row, nil
}

// Delete implements Store.
func (m *Mem) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.table(table)
	if _, ok := t[id]; !ok {
		return ErrNotFound
	}
	delete(t, id)
	return nil
}

// Count returns the number of rows in a table, for test assertions.
func (m *Mem) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table(table))
}

func (m *Mem) takeWriteFailure() error {
	if m.FailNextWrite == nil {
		return nil
	}
	err := m.FailNextWrite
	m.FailNextWrite = nil
	return err
}

func matches(row Row, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var doc map[string]any
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return false
	}
	for _, f := range filters {
		got, ok := doc[f.Field]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", f.Value) {
			return false
		}
	}
	return true
}

func cloneJSON(in json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), in...)
}
