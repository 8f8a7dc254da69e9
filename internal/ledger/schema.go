package ledger

import (
	"fmt"
	"time"
)

// --- Enums ---

// RunStatus is the lifecycle state of a recorded sort run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Direction controls chain traversal over PRECEDES edges.
type Direction string

const (
	DirectionAbove Direction = "above" // items the oracle placed before this one
	DirectionBelow Direction = "below" // items the oracle placed after this one
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBolt   Backend = "bolt"
	BackendKuzu   Backend = "kuzu"
)

// --- Models ---

// Run is one sort invocation.
type Run struct {
	ID          string    `json:"id"`
	Instruction string    `json:"instruction"`
	ItemCount   int       `json:"itemCount"`
	Status      RunStatus `json:"status"`
	Comparisons int64     `json:"comparisons"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitzero"`
}

// ItemNode is an input element of a run, identified by its position.
type ItemNode struct {
	RunID string `json:"runId"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ID returns the graph node identifier of the item.
func (n ItemNode) ID() string {
	return ItemID(n.RunID, n.Index)
}

// ItemID builds the node identifier "runID/index".
func ItemID(runID string, index int) string {
	return fmt.Sprintf("%s/%d", runID, index)
}

// Outcome is a PRECEDES edge: the oracle placed Winner before Loser.
type Outcome struct {
	RunID    string `json:"runId"`
	Seq      int64  `json:"seq"`
	Winner   int    `json:"winner"`
	Loser    int    `json:"loser"`
	Depth    int    `json:"depth"`
	Memoized bool   `json:"memoized,omitempty"`
}

// Stats summarizes a ledger.
type Stats struct {
	RunCount     int `json:"runCount"`
	ItemCount    int `json:"itemCount"`
	OutcomeCount int `json:"outcomeCount"`
}

// Chain is a path of item indexes along PRECEDES edges, starting at the
// queried item.
type Chain struct {
	Items []int `json:"items"`
	Depth int   `json:"depth"`
}

// Contradiction is a set of item texts whose recorded answers form a cycle,
// so no order can satisfy all of them. Cycle is one witness, closed (first
// equals last).
type Contradiction struct {
	Items []string `json:"items"`
	Cycle []string `json:"cycle"`
}
