package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

func (f *fakeStage) Run(ctx context.Context) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	f.wg.Add(1)
	defer f.wg.Done()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeStage) Wait() {
	f.wg.Wait()
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	app := New()
	s1, s2 := &fakeStage{}, &fakeStage{}
	app.Register("planner", s1)
	app.Register("writer", s2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		s1.mu.Lock()
		defer s1.mu.Unlock()
		return s1.started
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("App.Run did not return after context cancel")
	}
}
