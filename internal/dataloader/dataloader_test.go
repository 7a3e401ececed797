package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a batch function over a fixed dataset that remembers every
// key slice it was called with.
type recorder struct {
	mu    sync.Mutex
	calls [][]int
	data  map[int]string
	err   error
}

func newRecorder() *recorder {
	return &recorder{data: map[int]string{1: "one", 2: "two", 3: "three", 4: "four", 5: "five"}}
}

func (r *recorder) fetch(_ context.Context, keys []int) ([]Result[string], error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]int(nil), keys...))
	err := r.err
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make([]Result[string], len(keys))
	for i, k := range keys {
		if v, ok := r.data[k]; ok {
			out[i] = Found(v)
		} else {
			out[i] = NotFound[string]()
		}
	}
	return out, nil
}

// newTestLoader widens the wait window so keys queued back to back land in
// one batch even on a slow machine.
func newTestLoader(rec *recorder, opts ...Option) *Loader[int, string] {
	return New(rec.fetch, append([]Option{WithWait(20 * time.Millisecond)}, opts...)...)
}

func (r *recorder) Calls() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.calls...)
}

// ===== BATCHING =====

func TestQueuedKeysShareOneBatch(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)
	ctx := context.Background()

	t1 := l.LoadThunk(ctx, 1)
	t2 := l.LoadThunk(ctx, 2)
	t3 := l.LoadThunk(ctx, 3)

	v3, err := t3()
	require.NoError(t, err)
	v1, err := t1()
	require.NoError(t, err)
	v2, err := t2()
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, []string{v1, v2, v3})
	assert.Equal(t, [][]int{{1, 2, 3}}, rec.Calls())
}

func TestResultsArePositionalIncludingUnknownKeys(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)

	values, errs := l.LoadMany(context.Background(), []int{5, 42, 1})

	assert.Equal(t, "five", values[0])
	assert.NoError(t, errs[0])

	assert.Equal(t, "", values[1])
	assert.True(t, IsNotFound(errs[1]))

	assert.Equal(t, "one", values[2])
	assert.NoError(t, errs[2])

	assert.Len(t, rec.Calls(), 1)
}

func TestDuplicateKeysAreFetchedOnce(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)

	values, errs := l.LoadMany(context.Background(), []int{2, 2, 3, 2})
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"two", "two", "three", "two"}, values)
	assert.Equal(t, [][]int{{2, 3}}, rec.Calls())
}

func TestNoCacheSendsDuplicatesThrough(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec, NoCache())

	values, _ := l.LoadMany(context.Background(), []int{2, 2, 9})

	assert.Equal(t, []string{"two", "two", ""}, values)
	assert.Equal(t, [][]int{{2, 2, 9}}, rec.Calls())
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	rec := newRecorder()
	l := New(rec.fetch, WithWait(50*time.Millisecond))

	start := make(chan struct{})
	var wg sync.WaitGroup
	got := make([]string, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := l.Load(context.Background(), i+1)
			assert.NoError(t, err)
			got[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, got)
	require.Len(t, rec.Calls(), 1)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, rec.Calls()[0])
}

func TestLoadsAfterDispatchStartANewBatch(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)
	ctx := context.Background()

	_, err := l.Load(ctx, 1)
	require.NoError(t, err)
	_, err = l.Load(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1}, {2}}, rec.Calls())
}

func TestMaxBatchSplitsLargeBatches(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec, WithMaxBatch(2))

	values, errs := l.LoadMany(context.Background(), []int{1, 2, 3, 4, 5})
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, values)

	calls := rec.Calls()
	require.Len(t, calls, 3)
	sizes := []int{len(calls[0]), len(calls[1]), len(calls[2])}
	assert.ElementsMatch(t, []int{2, 2, 1}, sizes)
}

// ===== CACHING =====

func TestRepeatedLoadIsCached(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := l.Load(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "four", v)
	}
	assert.Len(t, rec.Calls(), 1)
}

func TestNotFoundIsCachedToo(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)
	ctx := context.Background()

	_, err := l.Load(ctx, 77)
	assert.True(t, IsNotFound(err))
	_, err = l.Load(ctx, 77)
	assert.True(t, IsNotFound(err))

	assert.Len(t, rec.Calls(), 1)
}

func TestPrimeAndClear(t *testing.T) {
	rec := newRecorder()
	l := newTestLoader(rec)
	ctx := context.Background()

	l.Prime(1, "primed")
	v, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "primed", v)
	assert.Empty(t, rec.Calls())

	// Prime never overwrites.
	l.Prime(1, "again")
	v, _ = l.Load(ctx, 1)
	assert.Equal(t, "primed", v)

	l.Clear(1)
	v, err = l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	assert.Equal(t, [][]int{{1}}, rec.Calls())
}

func TestSeparateLoadersShareNothing(t *testing.T) {
	rec := newRecorder()
	ctx := context.Background()

	first := newTestLoader(rec)
	second := newTestLoader(rec)

	_, err := first.Load(ctx, 1)
	require.NoError(t, err)
	_, err = second.Load(ctx, 1)
	require.NoError(t, err)

	assert.Len(t, rec.Calls(), 2)
}

// ===== FAILURES =====

func TestBatchErrorRejectsEveryLoad(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("connection refused")
	l := newTestLoader(rec)

	_, errs := l.LoadMany(context.Background(), []int{1, 2, 3})
	for _, err := range errs {
		assert.EqualError(t, err, "connection refused")
	}
	assert.Len(t, rec.Calls(), 1)
}

func TestBatchErrorIsNotCached(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("connection refused")
	l := newTestLoader(rec)
	ctx := context.Background()

	_, err := l.Load(ctx, 1)
	require.Error(t, err)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	v, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	assert.Len(t, rec.Calls(), 2)
}

func TestPerItemFailureDoesNotAffectSiblings(t *testing.T) {
	boom := errors.New("row 2 is corrupt")
	l := New(func(_ context.Context, keys []int) ([]Result[int], error) {
		out := make([]Result[int], len(keys))
		for i, k := range keys {
			if k == 2 {
				out[i] = Failed[int](boom)
				continue
			}
			out[i] = Found(k * 10)
		}
		return out, nil
	}, WithWait(20*time.Millisecond))

	values, errs := l.LoadMany(context.Background(), []int{1, 2, 3})

	assert.Equal(t, 10, values[0])
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.False(t, IsNotFound(errs[1]))
	assert.Equal(t, 30, values[2])
	assert.NoError(t, errs[2])
}

func TestWrongResultLength(t *testing.T) {
	l := New(func(_ context.Context, keys []int) ([]Result[int], error) {
		return []Result[int]{Found(1)}, nil
	}, WithWait(20*time.Millisecond))

	_, errs := l.LoadMany(context.Background(), []int{1, 2})
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrBatchLength)
	}
}

func TestPanicBecomesBatchError(t *testing.T) {
	l := New(func(_ context.Context, keys []int) ([]Result[int], error) {
		panic("nil map")
	}, WithName("panicky"))

	_, err := l.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicky batch panicked: nil map")
}

// ===== CANCELLATION =====

func TestCancelledCallerDoesNotCancelBatch(t *testing.T) {
	release := make(chan struct{})
	var batchCtxErr error
	calls := 0

	l := New(func(ctx context.Context, keys []int) ([]Result[string], error) {
		calls++
		<-release
		batchCtxErr = ctx.Err()
		return []Result[string]{Found(fmt.Sprint(keys[0]))}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	th := l.LoadThunk(ctx, 7)
	cancel()

	_, err := th()
	assert.ErrorIs(t, err, context.Canceled)

	close(release)

	// The batch finishes and its result is served from cache.
	v, err := l.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "7", v)
	assert.NoError(t, batchCtxErr)
	assert.Equal(t, 1, calls)
}

// ===== OBSERVER =====

func TestObserverSeesEveryBatch(t *testing.T) {
	rec := newRecorder()

	var mu sync.Mutex
	var sizes []int
	var names []string
	l := newTestLoader(rec, WithName("numbers"), WithObserver(func(name string, size int, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, err)
		sizes = append(sizes, size)
		names = append(names, name)
	}))

	l.LoadMany(context.Background(), []int{1, 2})
	_, _ = l.Load(context.Background(), 3)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1}, sizes)
	assert.Equal(t, []string{"numbers", "numbers"}, names)
}
