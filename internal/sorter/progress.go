package sorter

import (
	"context"
	"time"
)

// EventKind names a merge lifecycle event.
type EventKind string

const (
	EventMergeStarted   EventKind = "merge-started"
	EventMergeCompleted EventKind = "merge-completed"
)

// Event is emitted around every merge step.
type Event struct {
	RunID       string    `json:"runId"`
	Kind        EventKind `json:"kind"`
	Depth       int       `json:"depth"`
	Left        int       `json:"left"`
	Right       int       `json:"right"`
	Comparisons int       `json:"comparisons,omitempty"`
}

// Stats summarises the cost of one sort call. Comparisons counts answered
// comparisons, memo hits included; OracleCalls counts comparator invocations,
// so a failed call shows up there but not in Comparisons.
type Stats struct {
	RunID       string        `json:"runId"`
	Comparisons int64         `json:"comparisons"`
	OracleCalls int64         `json:"oracleCalls"`
	MemoHits    int64         `json:"memoHits"`
	Merges      int64         `json:"merges"`
	MaxDepth    int           `json:"maxDepth"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Comparison is one answered question. FirstPrecedes is the oracle's answer
// to "should First be placed at or before Second".
type Comparison struct {
	RunID         string        `json:"runId"`
	Seq           int64         `json:"seq"`
	Depth         int           `json:"depth"`
	First         Item          `json:"first"`
	Second        Item          `json:"second"`
	FirstPrecedes bool          `json:"firstPrecedes"`
	Memoized      bool          `json:"memoized,omitempty"`
	Elapsed       time.Duration `json:"elapsed,omitempty"`
}

// Winner returns the item the answer placed first.
func (c Comparison) Winner() Item {
	if c.FirstPrecedes {
		return c.First
	}
	return c.Second
}

// Loser returns the item the answer placed second.
func (c Comparison) Loser() Item {
	if c.FirstPrecedes {
		return c.Second
	}
	return c.First
}

// RunInfo describes a sort call. Stats is only populated in RunFinished.
type RunInfo struct {
	RunID       string
	Instruction string
	Items       []Item
	Stats       Stats
}

// Observer receives run and comparison events. Compared may be called from
// multiple goroutines at once.
type Observer interface {
	RunStarted(ctx context.Context, run RunInfo)
	Compared(ctx context.Context, cmp Comparison)
	RunFinished(ctx context.Context, run RunInfo, err error)
}
