// Package batcher throttles outbound API calls into fixed-size batches
// separated by a cool-down, and caches completed responses by URL.
package batcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/cineverse/internal/cache"
	"github.com/mmcdole/cineverse/internal/domain"
	"github.com/sourcegraph/conc"
)

const (
	// DefaultBatchSize leaves headroom under TMDB's 40 requests per window
	DefaultBatchSize = 35
	// DefaultCoolDown is TMDB's rate-limit window
	DefaultCoolDown = 10 * time.Second
)

// errFetchPanicked settles a request whose fetch panicked
var errFetchPanicked = errors.New("fetch panicked")

// Options configures a Batcher. Zero values select the defaults.
type Options struct {
	BatchSize int
	CoolDown  time.Duration
	Cache     domain.ResponseCache
	Logger    *slog.Logger
}

// Result is the outcome of one URL in EnqueueAll
type Result struct {
	URL  string
	Body []byte
	Err  error
}

// Stats are cumulative counters since construction
type Stats struct {
	Batches   int64 // Batches processed
	Fetches   int64 // Network calls made
	CacheHits int64 // Requests served from cache
	Coalesced int64 // Enqueues joined onto an already pending request
	Failures  int64 // Network calls that failed
}

// request is one pending URL. done is closed exactly once, after body/err are set.
type request struct {
	url  string
	done chan struct{}
	body []byte
	err  error
}

// Batcher releases queued requests in batches of at most BatchSize and waits
// CoolDown between batches while work remains. At most one processing loop
// runs at a time.
type Batcher struct {
	fetcher   domain.Fetcher
	cache     domain.ResponseCache
	logger    *slog.Logger
	batchSize int
	coolDown  time.Duration

	mu         sync.Mutex
	queue      []*request
	pending    map[string]*request // queued or in flight, by URL
	processing bool

	batches   atomic.Int64
	fetches   atomic.Int64
	cacheHits atomic.Int64
	coalesced atomic.Int64
	failures  atomic.Int64
}

// New creates a Batcher that performs network calls through fetcher
func New(fetcher domain.Fetcher, opts Options) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.CoolDown < 0 {
		opts.CoolDown = 0
	} else if opts.CoolDown == 0 {
		opts.CoolDown = DefaultCoolDown
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Batcher{
		fetcher:   fetcher,
		cache:     opts.Cache,
		logger:    opts.Logger,
		batchSize: opts.BatchSize,
		coolDown:  opts.CoolDown,
		pending:   make(map[string]*request),
	}
}

// Enqueue queues url and blocks until its request settles or ctx is done.
// A caller that gives up does not cancel the request; its result is still cached.
func (b *Batcher) Enqueue(ctx context.Context, url string) ([]byte, error) {
	reqs := b.push(url)
	return b.wait(ctx, reqs[0])
}

// EnqueueAll queues every url at once, so they are batched together in order,
// and waits for all of them. Failures are reported per URL.
func (b *Batcher) EnqueueAll(ctx context.Context, urls []string) []Result {
	reqs := b.push(urls...)
	results := make([]Result, len(reqs))
	for i, r := range reqs {
		body, err := b.wait(ctx, r)
		results[i] = Result{URL: urls[i], Body: body, Err: err}
	}
	return results
}

// ClearCache drops every cached response
func (b *Batcher) ClearCache() {
	if err := b.cache.Clear(context.Background()); err != nil {
		b.logger.Error("failed to clear response cache", "error", err)
		return
	}
	b.logger.Info("cleared response cache")
}

// CacheSize returns the number of cached responses
func (b *Batcher) CacheSize() int {
	return b.cache.Len(context.Background())
}

// QueueLen returns the number of requests waiting for a batch
func (b *Batcher) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Stats returns a snapshot of the counters
func (b *Batcher) Stats() Stats {
	return Stats{
		Batches:   b.batches.Load(),
		Fetches:   b.fetches.Load(),
		CacheHits: b.cacheHits.Load(),
		Coalesced: b.coalesced.Load(),
		Failures:  b.failures.Load(),
	}
}

// push appends requests under one lock and starts the loop when idle.
// A URL already queued or in flight is joined rather than queued twice.
func (b *Batcher) push(urls ...string) []*request {
	reqs := make([]*request, len(urls))

	b.mu.Lock()
	for i, url := range urls {
		if r, ok := b.pending[url]; ok {
			b.coalesced.Add(1)
			reqs[i] = r
			continue
		}
		r := &request{url: url, done: make(chan struct{})}
		b.pending[url] = r
		b.queue = append(b.queue, r)
		reqs[i] = r
	}
	start := !b.processing && len(b.queue) > 0
	if start {
		b.processing = true
	}
	b.mu.Unlock()

	if start {
		go b.process()
	}
	return reqs
}

func (b *Batcher) wait(ctx context.Context, r *request) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		if r.err != nil {
			return nil, r.err
		}
		return bytes.Clone(r.body), nil
	}
}

// process is the single processing loop
func (b *Batcher) process() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.processing = false
			b.mu.Unlock()
			return
		}
		n := min(b.batchSize, len(b.queue))
		batch := make([]*request, n)
		copy(batch, b.queue[:n])
		clear(b.queue[:n])
		b.queue = b.queue[n:]
		b.mu.Unlock()

		b.runBatch(batch)

		b.mu.Lock()
		more := len(b.queue) > 0
		b.mu.Unlock()
		if more {
			b.logger.Debug("batch done, cooling down", "wait", b.coolDown)
			time.Sleep(b.coolDown)
		}
	}
}

// runBatch dispatches every request in the batch together and waits for all
func (b *Batcher) runBatch(batch []*request) {
	b.batches.Add(1)
	b.logger.Debug("processing batch", "size", len(batch))

	ctx := context.Background()
	var wg conc.WaitGroup
	for _, r := range batch {
		wg.Go(func() {
			body, err := []byte(nil), errFetchPanicked
			defer func() { b.settle(r, body, err) }()
			body, err = b.resolve(ctx, r.url)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		b.logger.Error("fetch panicked", "panic", recovered.Value)
	}
}

func (b *Batcher) resolve(ctx context.Context, url string) ([]byte, error) {
	if body, ok := b.cache.Get(ctx, url); ok {
		b.cacheHits.Add(1)
		return body, nil
	}

	b.fetches.Add(1)
	body, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		b.failures.Add(1)
		b.logger.Warn("request failed", "error", err)
		return nil, err
	}

	if err := b.cache.Set(ctx, url, body); err != nil {
		b.logger.Warn("failed to cache response", "error", err)
	}
	return body, nil
}

func (b *Batcher) settle(r *request, body []byte, err error) {
	b.mu.Lock()
	if b.pending[r.url] == r {
		delete(b.pending, r.url)
	}
	b.mu.Unlock()

	r.body, r.err = body, err
	close(r.done)
}
