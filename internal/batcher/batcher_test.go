package batcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher records every network call
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []string
	starts   []time.Time
	fail     map[string]error
	delay    time.Duration
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	gate     chan struct{} // when non-nil, fetches block until closed
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.starts = append(f.starts, time.Now())
	err := f.fail[url]
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`{"url":%q}`, url)), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://api.test/movie/popular?page=%d", i+1)
	}
	return out
}

func TestEnqueueReturnsBody(t *testing.T) {
	f := &fakeFetcher{}
	b := New(f, Options{BatchSize: 2, CoolDown: time.Millisecond})

	body, err := b.Enqueue(context.Background(), "https://api.test/a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://api.test/a"}`, string(body))
	assert.Equal(t, 1, b.CacheSize())
}

func TestBatchCountAndCoolDown(t *testing.T) {
	const coolDown = 60 * time.Millisecond
	f := &fakeFetcher{}
	b := New(f, Options{BatchSize: 3, CoolDown: coolDown})

	results := b.EnqueueAll(context.Background(), urls(7))
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	assert.Equal(t, int64(3), b.Stats().Batches, "ceil(7/3) batches")
	require.Equal(t, 7, f.callCount())

	// Requests are released oldest first, three at a time.
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, urls(7), sortedByBatch(f.calls, 3))

	// Group start times into batches and check the gap between batches.
	var batchStarts []time.Time
	for i, s := range f.starts {
		if i == 0 || s.Sub(f.starts[i-1]) >= coolDown/2 {
			batchStarts = append(batchStarts, s)
		}
	}
	require.Len(t, batchStarts, 3)
	for i := 1; i < len(batchStarts); i++ {
		assert.GreaterOrEqual(t, batchStarts[i].Sub(batchStarts[i-1]), coolDown)
	}
}

// sortedByBatch sorts calls within each batch-sized window, since requests in
// one batch may start in any order.
func sortedByBatch(calls []string, size int) []string {
	out := append([]string(nil), calls...)
	for start := 0; start < len(out); start += size {
		end := min(start+size, len(out))
		window := out[start:end]
		for i := 1; i < len(window); i++ {
			for j := i; j > 0 && lessPage(window[j], window[j-1]); j-- {
				window[j], window[j-1] = window[j-1], window[j]
			}
		}
	}
	return out
}

func lessPage(a, b string) bool {
	var pa, pb int
	fmt.Sscanf(a, "https://api.test/movie/popular?page=%d", &pa)
	fmt.Sscanf(b, "https://api.test/movie/popular?page=%d", &pb)
	return pa < pb
}

func TestNoCoolDownAfterLastBatch(t *testing.T) {
	f := &fakeFetcher{}
	b := New(f, Options{BatchSize: 5, CoolDown: time.Hour})

	start := time.Now()
	results := b.EnqueueAll(context.Background(), urls(5))
	for _, r := range results {
		require.NoError(t, r.Err)
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), b.Stats().Batches)
}

func TestCachedURLSkipsNetwork(t *testing.T) {
	f := &fakeFetcher{}
	b := New(f, Options{BatchSize: 2, CoolDown: time.Millisecond})
	ctx := context.Background()

	first, err := b.Enqueue(ctx, "https://api.test/genre/movie/list")
	require.NoError(t, err)
	second, err := b.Enqueue(ctx, "https://api.test/genre/movie/list")
	require.NoError(t, err)
	third, err := b.Enqueue(ctx, "https://api.test/genre/movie/list")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, int64(2), b.Stats().CacheHits)
}

func TestFailureRejectsOnlyAffectedRequest(t *testing.T) {
	boom := errors.New("HTTP error! status: 500")
	f := &fakeFetcher{fail: map[string]error{"https://api.test/bad": boom}}
	b := New(f, Options{BatchSize: 10, CoolDown: time.Millisecond})

	results := b.EnqueueAll(context.Background(), []string{
		"https://api.test/good1",
		"https://api.test/bad",
		"https://api.test/good2",
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, int64(1), b.Stats().Failures)

	// Failed responses are not cached, so a retry by the caller hits the network.
	assert.Equal(t, 2, b.CacheSize())
	_, err := b.Enqueue(context.Background(), "https://api.test/bad")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, f.callCount())
}

func TestInFlightDuplicatesAreCoalesced(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	b := New(f, Options{BatchSize: 4, CoolDown: time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	bodies := make([][]byte, 3)
	for i := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := b.Enqueue(ctx, "https://api.test/movie/603")
			assert.NoError(t, err)
			bodies[i] = body
		}()
	}

	require.Eventually(t, func() bool {
		return b.Stats().Coalesced == 2
	}, time.Second, time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
}

func TestSingleProcessingLoop(t *testing.T) {
	f := &fakeFetcher{delay: 2 * time.Millisecond}
	b := New(f, Options{BatchSize: 3, CoolDown: 5 * time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Enqueue(ctx, fmt.Sprintf("https://api.test/tv/%d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, f.callCount())
	assert.LessOrEqual(t, f.maxSeen.Load(), int64(3), "more than one batch in flight")
	assert.Equal(t, 0, b.QueueLen())
}

func TestCancelledCallerStopsWaiting(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	b := New(f, Options{BatchSize: 1, CoolDown: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Enqueue(ctx, "https://api.test/slow")
		errCh <- err
	}()

	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The request still completes and lands in the cache.
	close(f.gate)
	require.Eventually(t, func() bool { return b.CacheSize() == 1 }, time.Second, time.Millisecond)
}

func TestClearCache(t *testing.T) {
	f := &fakeFetcher{}
	b := New(f, Options{BatchSize: 10, CoolDown: time.Millisecond})

	b.EnqueueAll(context.Background(), urls(4))
	assert.Equal(t, 4, b.CacheSize())

	b.ClearCache()
	assert.Equal(t, 0, b.CacheSize())

	_, err := b.Enqueue(context.Background(), urls(1)[0])
	require.NoError(t, err)
	assert.Equal(t, 5, f.callCount())
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) ([]byte, error) { panic("boom") }

func TestPanickingFetchSettlesRequest(t *testing.T) {
	b := New(panicFetcher{}, Options{BatchSize: 2, CoolDown: time.Millisecond})

	_, err := b.Enqueue(context.Background(), "https://api.test/panic")
	assert.ErrorIs(t, err, errFetchPanicked)
}
