package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore stalls the first Save until released and records every snapshot
// in arrival order.
type gatedStore struct {
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
	stalled bool
	saved   []Progress
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
}

func (s *gatedStore) Save(ctx context.Context, token string, progress Progress) error {
	s.mu.Lock()
	first := !s.stalled
	s.stalled = true
	s.mu.Unlock()

	if first {
		close(s.entered)
		<-s.gate
	}

	s.mu.Lock()
	s.saved = append(s.saved, progress)
	s.mu.Unlock()
	return nil
}

func (s *gatedStore) Get(ctx context.Context, token string) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return Progress{}, nil
	}
	return s.saved[len(s.saved)-1], nil
}

func TestTracker_ConcurrentFinishesPersistInCounterOrder(t *testing.T) {
	// given: two workers finishing back to back while the store is slow for
	// the first of them
	store := newGatedStore()
	tracker := newTracker("tok-slow-store", store, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		tracker.fileDone(context.Background(), "a.jpg", nil)
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		tracker.fileDone(context.Background(), "b.jpg", nil)
	}()
	time.Sleep(20 * time.Millisecond)

	// when: the stalled save is released
	close(store.gate)
	wg.Wait()

	// then: the completed snapshot is the last one persisted, never the
	// intermediate one
	require.Len(t, store.saved, 2)
	assert.Equal(t, uint(1), store.saved[0].Done)
	assert.Equal(t, uint(1), store.saved[0].Pending)
	assert.Equal(t, uint(2), store.saved[1].Done)
	assert.Equal(t, uint(0), store.saved[1].Pending)

	final, err := store.Get(context.Background(), "tok-slow-store")
	require.NoError(t, err)
	assert.Equal(t, uint(2), final.Done)
	assert.Equal(t, uint(0), final.Pending)
}
