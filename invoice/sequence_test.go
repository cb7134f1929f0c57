package invoice_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/frontdesk/invoice"
	"github.com/innkeep/frontdesk/ledger"
	"github.com/innkeep/frontdesk/ledger/store"
)

// =============================================================================
// NUMBER FORMAT
// =============================================================================

func TestNext_FormatAndMonotonicity(t *testing.T) {
	// GIVEN: A fresh counter
	// WHEN: Allocating three numbers
	// THEN: INV-000001, INV-000002, INV-000003

	seq := invoice.NewSequence(store.NewMemory())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%06d", i), got)
	}
}

func TestNext_CustomPrefixAndCounter(t *testing.T) {
	mem := store.NewMemory()
	seq := invoice.NewSequence(mem, invoice.WithPrefix("RCT-"), invoice.WithCounterName("receipt_seq"))

	got, err := seq.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "RCT-000001", got)

	v, err := mem.LoadCounter(context.Background(), "receipt_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestNext_SurvivesRestart(t *testing.T) {
	// GIVEN: A counter persisted by a previous allocator
	// WHEN: A new allocator starts over the same store
	// THEN: Numbering continues, never restarts

	mem := store.NewMemory()
	require.NoError(t, mem.SaveCounter(context.Background(), "invoice_seq", 41))

	seq := invoice.NewSequence(mem)
	got, err := seq.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "INV-000042", got)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestNext_ConcurrentAllocationsAreUniqueAndGapless(t *testing.T) {
	// GIVEN: 50 goroutines racing for numbers
	// WHEN: All complete
	// THEN: 50 distinct numbers forming the exact sequence 1..50

	seq := invoice.NewSequence(store.NewMemory())
	ctx := context.Background()

	const n = 50
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := seq.Next(ctx)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	sort.Strings(results)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("INV-%06d", i+1), results[i])
	}
}

// =============================================================================
// LOCK TIMEOUT
// =============================================================================

// stallingStore blocks SaveCounter until released, holding the allocator
// lock open for the duration.
type stallingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) SaveCounter(ctx context.Context, name string, value int64) error {
	close(s.entered)
	<-s.release
	return s.Memory.SaveCounter(ctx, name, value)
}

func TestNext_BoundedWaitTimesOut(t *testing.T) {
	// GIVEN: One allocation holding the lock indefinitely
	// WHEN: A second allocation waits its bounded 50ms
	// THEN: It fails with ErrLockUnavailable and issues nothing

	st := &stallingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	seq := invoice.NewSequence(st, invoice.WithLockWait(50*time.Millisecond))
	ctx := context.Background()

	go func() {
		_, _ = seq.Next(ctx) // holds the lock until release
	}()
	<-st.entered

	_, err := seq.Next(ctx)
	assert.ErrorIs(t, err, ledger.ErrLockUnavailable)

	close(st.release)
}

func TestNext_ContextCancellation(t *testing.T) {
	st := &stallingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	seq := invoice.NewSequence(st, invoice.WithLockWait(10*time.Second))

	go func() {
		_, _ = seq.Next(context.Background())
	}()
	<-st.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seq.Next(ctx)

	assert.ErrorIs(t, err, context.Canceled)

	close(st.release)
}
