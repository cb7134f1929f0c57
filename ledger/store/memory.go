// Package store provides an in-memory Store implementation (for testing/dev).
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/innkeep/frontdesk/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of every persistence interface
// =============================================================================

// Memory implements ledger.Store, the invoice counter store, and the room
// override feed. Values live only as long as the process.
type Memory struct {
	mu        sync.RWMutex
	records   []ledger.BookingRecord
	headers   []string
	counters  map[string]int64
	overrides map[string]ledger.Override
}

func NewMemory() *Memory {
	return &Memory{
		counters:  make(map[string]int64),
		overrides: make(map[string]ledger.Override),
	}
}

// -----------------------------------------------------------------------------
// ledger.Store
// -----------------------------------------------------------------------------

func (m *Memory) LoadAll(_ context.Context) ([]ledger.BookingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ledger.BookingRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) Insert(_ context.Context, rec ledger.BookingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.RowIndex != len(m.records)+1 {
		return fmt.Errorf("insert row %d out of order (have %d rows)", rec.RowIndex, len(m.records))
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) Update(_ context.Context, rec ledger.BookingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.RowIndex < 1 || rec.RowIndex > len(m.records) {
		return fmt.Errorf("update row %d: %w", rec.RowIndex, ledger.ErrRowNotFound)
	}
	m.records[rec.RowIndex-1] = rec
	return nil
}

func (m *Memory) LoadHeaders(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.headers))
	copy(out, m.headers)
	return out, nil
}

func (m *Memory) SaveHeaders(_ context.Context, headers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.headers = make([]string, len(headers))
	copy(m.headers, headers)
	return nil
}

// -----------------------------------------------------------------------------
// invoice.CounterStore
// -----------------------------------------------------------------------------

func (m *Memory) LoadCounter(_ context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name], nil
}

func (m *Memory) SaveCounter(_ context.Context, name string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = value
	return nil
}

// -----------------------------------------------------------------------------
// engine.OverrideFeed
// -----------------------------------------------------------------------------

func (m *Memory) Overrides(_ context.Context) (map[string]ledger.Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ledger.Override, len(m.overrides))
	for room, status := range m.overrides {
		out[room] = status
	}
	return out, nil
}

// SetOverride records a maintenance override, keyed by normalized room.
func (m *Memory) SetOverride(_ context.Context, room string, status ledger.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ledger.NormalizeRoom(room)
	if key == "" {
		return fmt.Errorf("set override: empty room")
	}
	if status == ledger.OverrideAvailable {
		delete(m.overrides, key)
		return nil
	}
	m.overrides[key] = status
	return nil
}
