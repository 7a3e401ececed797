// Package dataloader coalesces point lookups into batched fetches.
//
// A Loader is meant to live for exactly one request. Resolvers call Load
// for whatever key they need; the loader holds the keys for a short wait
// window, then calls the batch function once with all of them. Results are
// cached for the life of the loader, so asking twice for the same key costs
// one lookup.
//
// THE BATCH CONTRACT:
// The batch function receives keys and must return exactly one Result per
// key, in the same order. Missing items are reported per position
// (NotFound) and never fail their neighbours. Returning a non-nil error
// instead fails every load in the batch.
package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBatchLength is returned to every caller in a batch whose function
// broke the positional contract.
var ErrBatchLength = errors.New("dataloader: batch function returned wrong number of results")

const (
	DefaultWait     = 2 * time.Millisecond
	DefaultMaxBatch = 100
)

// BatchFunc fetches values for keys. len(result) must equal len(keys) and
// result[i] must answer keys[i].
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]Result[V], error)

// Observer is told about every dispatched batch.
type Observer func(name string, size int, took time.Duration, err error)

type Option func(*options)

type options struct {
	name     string
	wait     time.Duration
	maxBatch int
	cache    bool
	observer Observer
}

// WithWait sets how long the first load of a batch waits for company.
func WithWait(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.wait = d
		}
	}
}

// WithMaxBatch dispatches early once n keys are queued.
func WithMaxBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBatch = n
		}
	}
}

// WithName labels the loader for observers.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithObserver installs a hook called after every batch.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// NoCache disables memoisation: every Load queues its key, duplicates
// included.
func NoCache() Option {
	return func(o *options) { o.cache = false }
}

// Loader batches and caches lookups of V by K. The zero value is not
// usable; create one with New.
type Loader[K comparable, V any] struct {
	fetch BatchFunc[K, V]
	opts  options

	mu    sync.Mutex
	cache map[K]*pending[V]
	batch *batch[K, V]
}

// pending is the eventual answer for one key.
type pending[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func (p *pending[V]) resolve(v V, err error) {
	p.value, p.err = v, err
	close(p.done)
}

type batch[K comparable, V any] struct {
	ctx     context.Context
	keys    []K
	waiters []*pending[V]
	timer   *time.Timer
}

func New[K comparable, V any](fetch BatchFunc[K, V], opts ...Option) *Loader[K, V] {
	o := options{
		name:     "loader",
		wait:     DefaultWait,
		maxBatch: DefaultMaxBatch,
		cache:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Loader[K, V]{
		fetch: fetch,
		opts:  o,
		cache: make(map[K]*pending[V]),
	}
}

// Load returns the value for key, waiting for its batch to complete. If ctx
// ends first Load returns ctx.Err(); the batch still runs to completion and
// its result stays cached.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(ctx, key)()
}

// LoadThunk queues key without waiting. Calling the returned function
// blocks until the value is available. Queueing several keys first and
// then calling their thunks places them in the same batch.
func (l *Loader[K, V]) LoadThunk(ctx context.Context, key K) func() (V, error) {
	p := l.enqueue(ctx, key)

	return func() (V, error) {
		select {
		case <-p.done:
			return p.value, p.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

// LoadMany loads several keys in one batch. values[i] and errs[i] answer
// keys[i].
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, []error) {
	thunks := make([]func() (V, error), len(keys))
	for i, k := range keys {
		thunks[i] = l.LoadThunk(ctx, k)
	}

	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, th := range thunks {
		values[i], errs[i] = th()
	}
	return values, errs
}

// Prime stores value for key unless the key is already cached.
func (l *Loader[K, V]) Prime(key K, value V) {
	if !l.opts.cache {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache[key]; ok {
		return
	}
	p := &pending[V]{done: make(chan struct{})}
	p.resolve(value, nil)
	l.cache[key] = p
}

// Clear forgets key so the next Load fetches it again.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
}

func (l *Loader[K, V]) enqueue(ctx context.Context, key K) *pending[V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opts.cache {
		if p, ok := l.cache[key]; ok {
			return p
		}
	}

	p := &pending[V]{done: make(chan struct{})}
	if l.opts.cache {
		l.cache[key] = p
	}

	if l.batch == nil {
		b := &batch[K, V]{
			// The batch outlives any single caller: a cancelled request
			// must not abort a query other loads are waiting on.
			ctx: context.WithoutCancel(ctx),
		}
		b.timer = time.AfterFunc(l.opts.wait, func() { l.dispatch(b) })
		l.batch = b
	}

	b := l.batch
	b.keys = append(b.keys, key)
	b.waiters = append(b.waiters, p)

	if len(b.keys) >= l.opts.maxBatch {
		l.batch = nil
		if b.timer.Stop() {
			go l.run(b)
		}
	}
	return p
}

// dispatch is the timer callback. The batch may already have been sent
// because it filled up.
func (l *Loader[K, V]) dispatch(b *batch[K, V]) {
	l.mu.Lock()
	if l.batch == b {
		l.batch = nil
	}
	l.mu.Unlock()

	l.run(b)
}

func (l *Loader[K, V]) run(b *batch[K, V]) {
	start := time.Now()
	results, err := l.call(b)
	if err == nil && len(results) != len(b.keys) {
		err = fmt.Errorf("%w: %d keys, %d results", ErrBatchLength, len(b.keys), len(results))
	}

	if l.opts.observer != nil {
		l.opts.observer(l.opts.name, len(b.keys), time.Since(start), err)
	}

	if err == nil {
		for i, w := range b.waiters {
			w.resolve(results[i].Value, results[i].Err)
		}
		return
	}

	// Failed keys are retried by the next Load instead of replaying the
	// error for the rest of the request.
	if l.opts.cache {
		l.mu.Lock()
		for i, k := range b.keys {
			if l.cache[k] == b.waiters[i] {
				delete(l.cache, k)
			}
		}
		l.mu.Unlock()
	}

	var zero V
	for _, w := range b.waiters {
		w.resolve(zero, err)
	}
}

// call runs the batch function, turning a panic into a batch-wide error.
func (l *Loader[K, V]) call(b *batch[K, V]) (results []Result[V], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dataloader: %s batch panicked: %v", l.opts.name, r)
		}
	}()
	return l.fetch(b.ctx, b.keys)
}
