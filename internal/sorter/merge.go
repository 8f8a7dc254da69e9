package sorter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Item identifies an element of the caller's input by position and rendered
// text. Duplicates keep distinct indexes.
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type entry[T any] struct {
	item  Item
	value T
}

// call is the per-invocation state of one Sort. Nothing here outlives the
// call, so memoised answers never leak into another sort.
type call[T any] struct {
	sorter      *Sorter[T]
	runID       string
	instruction string
	sem         *semaphore.Weighted // nil when sequential
	memo        *memo               // nil when disabled

	seq      atomic.Int64
	answered atomic.Int64
	calls    atomic.Int64
	hits     atomic.Int64
	merges   atomic.Int64

	mu       sync.Mutex
	maxDepth int
}

// sort is the recursive split step. When parallelism is enabled the two
// halves run on separate goroutines; the first failure cancels the sibling.
func (c *call[T]) sort(ctx context.Context, run []entry[T], depth int) ([]entry[T], error) {
	if len(run) <= 1 {
		return run, nil
	}
	c.noteDepth(depth)

	mid := len(run) / 2
	var left, right []entry[T]

	if c.sem != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			left, err = c.sort(gctx, run[:mid], depth+1)
			return err
		})
		g.Go(func() error {
			var err error
			right, err = c.sort(gctx, run[mid:], depth+1)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		var err error
		if left, err = c.sort(ctx, run[:mid], depth+1); err != nil {
			return nil, err
		}
		if right, err = c.sort(ctx, run[mid:], depth+1); err != nil {
			return nil, err
		}
	}

	return c.merge(ctx, left, right, depth)
}

// merge combines two sorted runs. Each head-to-head answer is resolved before
// the next output position is decided; once a run is exhausted the other is
// appended without further comparisons.
func (c *call[T]) merge(ctx context.Context, left, right []entry[T], depth int) ([]entry[T], error) {
	c.emit(Event{
		RunID: c.runID,
		Kind:  EventMergeStarted,
		Depth: depth,
		Left:  len(left),
		Right: len(right),
	})

	merged := make([]entry[T], 0, len(left)+len(right))
	i, j, comparisons := 0, 0, 0
	for i < len(left) && j < len(right) {
		firstPrecedes, err := c.compare(ctx, left[i], right[j], depth)
		if err != nil {
			return nil, err
		}
		comparisons++
		if firstPrecedes {
			merged = append(merged, left[i])
			i++
		} else {
			merged = append(merged, right[j])
			j++
		}
	}
	merged = append(merged, left[i:]...)
	merged = append(merged, right[j:]...)

	c.merges.Add(1)
	c.sorter.opts.logger.Debug("merged runs",
		zap.String("run", c.runID),
		zap.Int("depth", depth),
		zap.Int("left", len(left)),
		zap.Int("right", len(right)),
		zap.Int("comparisons", comparisons))
	c.emit(Event{
		RunID:       c.runID,
		Kind:        EventMergeCompleted,
		Depth:       depth,
		Left:        len(left),
		Right:       len(right),
		Comparisons: comparisons,
	})
	return merged, nil
}

// compare asks the comparator about first vs second, consulting the memo when
// enabled and holding a semaphore slot while the oracle is busy.
func (c *call[T]) compare(ctx context.Context, first, second entry[T], depth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	seq := c.seq.Add(1)

	if c.memo != nil {
		if result, ok := c.memo.get(first.item.Text, second.item.Text); ok {
			c.hits.Add(1)
			c.answered.Add(1)
			c.observe(ctx, Comparison{
				RunID: c.runID, Seq: seq, Depth: depth,
				First: first.item, Second: second.item,
				FirstPrecedes: result, Memoized: true,
			})
			return result, nil
		}
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return false, err
		}
		defer c.sem.Release(1)
	}

	start := time.Now()
	result, err := c.sorter.cmp.Compare(ctx, first.value, second.value, c.instruction)
	c.calls.Add(1)
	if err != nil {
		return false, &ComparisonError{First: first.item, Second: second.item, Seq: seq, Err: err}
	}

	c.answered.Add(1)
	if c.memo != nil {
		c.memo.put(first.item.Text, second.item.Text, result)
	}
	c.observe(ctx, Comparison{
		RunID: c.runID, Seq: seq, Depth: depth,
		First: first.item, Second: second.item,
		FirstPrecedes: result,
		Elapsed:       time.Since(start),
	})
	return result, nil
}

func (c *call[T]) noteDepth(depth int) {
	c.mu.Lock()
	if depth > c.maxDepth {
		c.maxDepth = depth
	}
	c.mu.Unlock()
}

func (c *call[T]) stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	depth := c.maxDepth
	c.mu.Unlock()
	return Stats{
		RunID:       c.runID,
		Comparisons: c.answered.Load(),
		OracleCalls: c.calls.Load(),
		MemoHits:    c.hits.Load(),
		Merges:      c.merges.Load(),
		MaxDepth:    depth,
		Elapsed:     elapsed,
	}
}

func (c *call[T]) emit(ev Event) {
	if c.sorter.opts.onProgress != nil {
		c.sorter.opts.onProgress(ev)
	}
}

func (c *call[T]) observe(ctx context.Context, cmp Comparison) {
	if c.sorter.opts.observer != nil {
		c.sorter.opts.observer.Compared(ctx, cmp)
	}
}
