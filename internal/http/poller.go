package http

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tomek7667/serachart/internal/history"
	"github.com/tomek7667/serachart/internal/source"
)

type PollerOptions struct {
	// MinInterval rate-limits passive refreshes of one key.
	MinInterval time.Duration
	// RefreshInterval is the background refresh period.
	RefreshInterval time.Duration
	Timeout         time.Duration
	// Idle stops background refreshes of keys nobody viewed for this long.
	Idle time.Duration
}

type pollKey struct {
	metric string
	window string
}

type pollEntry struct {
	batch       history.Batch
	samples     []history.Sample
	hasBatch    bool
	fetchedAt   time.Time
	attemptedAt time.Time
	viewedAt    time.Time
	err         error
}

// Fetched is what the poller hands to handlers. Stale is set when the last
// fetch failed and an older batch is served instead.
type Fetched struct {
	Batch     history.Batch
	Samples   []history.Sample
	FetchedAt time.Time
	Stale     bool
	Err       error
}

// Poller caches the latest batch per (metric, window). A newer response
// always replaces the cached one, even if it was requested earlier.
type Poller struct {
	src  source.Source
	opts PollerOptions
	now  func() time.Time
	obs  *collectors

	mu      sync.RWMutex
	entries map[pollKey]*pollEntry
}

func NewPoller(src source.Source, opts PollerOptions) *Poller {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Idle <= 0 {
		opts.Idle = 10 * time.Minute
	}
	return &Poller{
		src:     src,
		opts:    opts,
		now:     time.Now,
		entries: make(map[pollKey]*pollEntry),
	}
}

func (p *Poller) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(p.opts.RefreshInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.refreshViewed()
			}
		}
	}()
}

// Get returns the cached batch for metric and w, fetching a new one when
// force is set, nothing is cached, or the last attempt is older than
// MinInterval.
func (p *Poller) Get(ctx context.Context, metric string, w history.Window, force bool) (Fetched, error) {
	key := pollKey{metric: metric, window: w.Key}
	now := p.now()

	p.mu.Lock()
	e, ok := p.entries[key]
	if !ok {
		e = &pollEntry{}
		p.entries[key] = e
	}
	e.viewedAt = now
	fresh := e.hasBatch && now.Sub(e.attemptedAt) < p.opts.MinInterval
	if fresh && !force {
		res := e.result()
		p.mu.Unlock()
		return res, nil
	}
	e.attemptedAt = now
	p.mu.Unlock()

	return p.fetch(ctx, key, w)
}

// Cached returns the last stored batch without fetching.
func (p *Poller) Cached(metric, window string) (Fetched, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[pollKey{metric: metric, window: window}]
	if !ok || !e.hasBatch {
		return Fetched{}, false
	}
	return e.result(), true
}

func (p *Poller) fetch(ctx context.Context, key pollKey, w history.Window) (Fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	start := p.now()
	from, to := w.Bounds(start)
	batch, err := p.src.History(ctx, key.metric, from, to)
	p.obs.observeFetch(key.metric, p.now().Sub(start), err)

	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entries[key]
	if e == nil {
		e = &pollEntry{}
		p.entries[key] = e
	}
	if err != nil {
		e.err = err
		if !e.hasBatch {
			return Fetched{}, err
		}
		log.Printf("history fetch failed for %s/%s, serving cached batch: %v", key.metric, key.window, err)
		return e.result(), nil
	}

	e.batch = batch
	e.samples = history.Filter(batch.Points)
	e.hasBatch = true
	e.fetchedAt = p.now()
	e.err = nil
	p.obs.observePoints(key.metric, key.window, len(e.samples))
	return e.result(), nil
}

func (e *pollEntry) result() Fetched {
	return Fetched{
		Batch:     e.batch,
		Samples:   e.samples,
		FetchedAt: e.fetchedAt,
		Stale:     e.err != nil,
		Err:       e.err,
	}
}

func (p *Poller) refreshViewed() {
	now := p.now()
	var due []pollKey
	p.mu.Lock()
	for k, e := range p.entries {
		if now.Sub(e.viewedAt) > p.opts.Idle {
			delete(p.entries, k)
			continue
		}
		if now.Sub(e.attemptedAt) >= p.opts.MinInterval {
			e.attemptedAt = now
			due = append(due, k)
		}
	}
	p.mu.Unlock()

	for _, k := range due {
		w, ok := history.LookupWindow(k.window)
		if !ok {
			continue
		}
		if _, err := p.fetch(context.Background(), k, w); err != nil {
			log.Printf("background refresh of %s/%s failed: %v", k.metric, k.window, err)
		}
	}
}
