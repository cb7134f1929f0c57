/*
Package invoice allocates invoice numbers and drives invoice generation.

PURPOSE:
  Two responsibilities with very different temperaments:

  1. sequence.go - the ONLY genuinely concurrent piece of the system. The
     allocator hands out globally unique, strictly increasing invoice
     numbers backed by a persisted counter. Checkout side effects and bulk
     operations can both reach for a number at the same time, so the
     read-increment-write is wrapped in a named lock with a bounded wait.

  2. generator.go - the collaborator boundary for documents/notification.
     The core calls out with the invoice data and stores only the returned
     reference; rendering and delivery live on the other side.

LOCK CONTRACT:
  Acquire within the bounded wait or fail with ledger.ErrLockUnavailable.
  No silent retry, no double-issue: a timed-out request is simply aborted
  and the caller surfaces the failure. The critical section is one read
  plus one write.
*/
package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/innkeep/frontdesk/ledger"
)

// Defaults for the allocator. The prefix and width are part of the invoice
// number format contract: INV-000123.
const (
	DefaultPrefix      = "INV-"
	DefaultCounterName = "invoice_seq"
	DefaultLockWait    = 15 * time.Second
)

// =============================================================================
// COUNTER STORE - Persisted counter interface
// =============================================================================

// CounterStore persists a single named integer that survives restarts. Only
// the sequence allocator reads or writes it.
type CounterStore interface {
	LoadCounter(ctx context.Context, name string) (int64, error)
	SaveCounter(ctx context.Context, name string, value int64) error
}

// =============================================================================
// SEQUENCE - Mutually exclusive monotonic allocator
// =============================================================================

type Sequence struct {
	store   CounterStore
	name    string
	prefix  string
	wait    time.Duration
	lock    chan struct{} // buffered size 1; holding the token = holding the lock
}

// NewSequence creates an allocator over the given counter store.
func NewSequence(store CounterStore, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		store:  store,
		name:   DefaultCounterName,
		prefix: DefaultPrefix,
		wait:   DefaultLockWait,
		lock:   make(chan struct{}, 1),
	}
	s.lock <- struct{}{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SequenceOption func(*Sequence)

// WithPrefix overrides the invoice number prefix.
func WithPrefix(prefix string) SequenceOption {
	return func(s *Sequence) { s.prefix = prefix }
}

// WithLockWait overrides the bounded lock wait.
func WithLockWait(wait time.Duration) SequenceOption {
	return func(s *Sequence) { s.wait = wait }
}

// WithCounterName overrides the persisted counter name.
func WithCounterName(name string) SequenceOption {
	return func(s *Sequence) { s.name = name }
}

// Next allocates the next invoice number: acquire the lock (bounded wait),
// read the persisted counter, increment, persist, release. On timeout the
// request fails with ledger.ErrLockUnavailable and nothing is issued.
func (s *Sequence) Next(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.wait)
	defer timer.Stop()

	select {
	case <-s.lock:
		defer func() { s.lock <- struct{}{} }()
	case <-timer.C:
		return "", fmt.Errorf("invoice sequence: waited %s: %w", s.wait, ledger.ErrLockUnavailable)
	case <-ctx.Done():
		return "", fmt.Errorf("invoice sequence: %w", ctx.Err())
	}

	current, err := s.store.LoadCounter(ctx, s.name)
	if err != nil {
		return "", fmt.Errorf("invoice sequence: load counter: %w", err)
	}
	next := current + 1
	if err := s.store.SaveCounter(ctx, s.name, next); err != nil {
		return "", fmt.Errorf("invoice sequence: save counter: %w", err)
	}
	return fmt.Sprintf("%s%06d", s.prefix, next), nil
}
