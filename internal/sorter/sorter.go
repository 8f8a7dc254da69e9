// Package sorter implements a top-down merge sort whose comparisons are
// answered by an external, possibly slow and unreliable, judgment oracle.
//
// The engine never mutates its input and always returns a newly allocated
// slice. It does not assume the oracle's answers form a total order: the
// result is whatever order the recorded answers produce, so stability and
// transitivity are not guaranteed.
package sorter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultInstruction is passed to the comparator when a sort call has no
// instruction of its own. The oracle layer keeps its own default for
// comparisons that arrive without any instruction.
const DefaultInstruction = "Sort the values in ascending order, judging each value by its meaning and content."

// Comparator answers whether first should be placed at or before second.
type Comparator[T any] interface {
	Compare(ctx context.Context, first, second T, instruction string) (bool, error)
}

// CompareFunc adapts a plain function to the Comparator interface.
type CompareFunc[T any] func(ctx context.Context, first, second T, instruction string) (bool, error)

// Compare calls f(ctx, first, second, instruction).
func (f CompareFunc[T]) Compare(ctx context.Context, first, second T, instruction string) (bool, error) {
	return f(ctx, first, second, instruction)
}

// renderer is implemented by comparators that know how their items are shown
// to the oracle (oracle.Client does). Items are otherwise rendered with
// fmt.Sprint for diagnostics.
type renderer[T any] interface {
	Render(T) string
}

// Sorter sorts slices of T using a Comparator. A Sorter holds only immutable
// configuration and may be shared by concurrent Sort calls.
type Sorter[T any] struct {
	cmp    Comparator[T]
	render func(T) string
	opts   options
}

// New creates a Sorter that asks cmp for every comparison.
func New[T any](cmp Comparator[T], opts ...Option) *Sorter[T] {
	s := &Sorter[T]{
		cmp:    cmp,
		render: func(v T) string { return fmt.Sprint(v) },
		opts:   defaultOptions(),
	}
	if r, ok := cmp.(renderer[T]); ok {
		s.render = r.Render
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	if s.opts.logger == nil {
		s.opts.logger = zap.NewNop()
	}
	return s
}

// Sort returns a new slice holding every element of items exactly once,
// ordered by the comparator's answers. An empty instruction is replaced by
// the configured default (DefaultInstruction unless overridden).
//
// Any comparator failure aborts the sort: no partial result is returned and
// the error is a *ComparisonError wrapping the comparator's error.
func (s *Sorter[T]) Sort(ctx context.Context, items []T, instruction string) ([]T, error) {
	out, _, err := s.SortWithStats(ctx, items, instruction)
	return out, err
}

// SortWithStats is Sort that also reports what the call cost. Stats are
// returned even when the sort fails.
func (s *Sorter[T]) SortWithStats(ctx context.Context, items []T, instruction string) ([]T, Stats, error) {
	start := time.Now()
	if instruction == "" {
		instruction = s.opts.defaultInstruction
	}

	entries := make([]entry[T], len(items))
	for i, v := range items {
		entries[i] = entry[T]{item: Item{Index: i, Text: s.render(v)}, value: v}
	}

	c := &call[T]{
		sorter:      s,
		runID:       uuid.NewString(),
		instruction: instruction,
	}
	if s.opts.parallelism > 1 {
		c.sem = semaphore.NewWeighted(int64(s.opts.parallelism))
	}
	if s.opts.memoize {
		c.memo = newMemo()
	}

	info := RunInfo{RunID: c.runID, Instruction: instruction, Items: itemsOf(entries)}
	if s.opts.observer != nil {
		s.opts.observer.RunStarted(ctx, info)
	}

	sorted, err := c.validateAndSort(ctx, entries)

	stats := c.stats(time.Since(start))
	info.Stats = stats
	if s.opts.observer != nil {
		s.opts.observer.RunFinished(ctx, info, err)
	}

	if err != nil {
		s.opts.logger.Debug("sort failed",
			zap.String("run", c.runID),
			zap.Int("items", len(items)),
			zap.Int64("comparisons", stats.Comparisons),
			zap.Error(err))
		return nil, stats, err
	}

	out := make([]T, len(sorted))
	for i, e := range sorted {
		out[i] = e.value
	}
	s.opts.logger.Debug("sort finished",
		zap.String("run", c.runID),
		zap.Int("items", len(items)),
		zap.Int64("comparisons", stats.Comparisons),
		zap.Int64("oracleCalls", stats.OracleCalls),
		zap.Duration("elapsed", stats.Elapsed))
	return out, stats, nil
}

func (c *call[T]) validateAndSort(ctx context.Context, entries []entry[T]) ([]entry[T], error) {
	if c.sorter.opts.strictInput {
		for _, e := range entries {
			if strings.TrimSpace(e.item.Text) == "" {
				return nil, fmt.Errorf("sorter: item %d renders to empty text: %w", e.item.Index, ErrInvalidInput)
			}
		}
	}
	return c.sort(ctx, entries, 0)
}

func itemsOf[T any](entries []entry[T]) []Item {
	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}
