// Package ledger records the answers an oracle gave during sort runs as a
// graph of items joined by PRECEDES edges, and analyses that graph for
// chains and contradictions.
package ledger

import (
	"context"
	"fmt"
	"io"
)

// Store is the ledger backend. Implementations: MemStore, BoltStore and
// KuzuStore (cgo builds only). All methods are safe for concurrent use.
type Store interface {
	io.Closer

	// InitSchema prepares the backend. It is idempotent.
	InitSchema(ctx context.Context) error

	// AddRun inserts or replaces a run.
	AddRun(ctx context.Context, run Run) error
	// AddItem inserts an item of an existing run.
	AddItem(ctx context.Context, item ItemNode) error
	// AddOutcome inserts a PRECEDES edge between two items of a run.
	AddOutcome(ctx context.Context, outcome Outcome) error

	// GetRun returns the run with the given ID, or nil if none exists.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns all runs ordered by start time.
	ListRuns(ctx context.Context) ([]Run, error)
	// Items returns the items of a run ordered by index.
	Items(ctx context.Context, runID string) ([]ItemNode, error)
	// Outcomes returns the outcomes of a run ordered by sequence number.
	Outcomes(ctx context.Context, runID string) ([]Outcome, error)

	Stats(ctx context.Context) (*Stats, error)
}

// Open creates a store for backend. path is ignored for the memory backend;
// for bolt it is the database file and for kuzu the database directory.
func Open(ctx context.Context, backend Backend, path string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch backend {
	case BackendMemory, "":
		s = NewMemStore()
	case BackendBolt:
		s, err = NewBoltStore(path)
	case BackendKuzu:
		s, err = openKuzu(path)
	default:
		return nil, fmt.Errorf("ledger: unknown backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
