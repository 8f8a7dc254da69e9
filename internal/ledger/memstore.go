package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	runs     map[string]Run
	items    map[string]map[int]ItemNode // runID -> index -> item
	outcomes map[string][]Outcome
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:     make(map[string]Run),
		items:    make(map[string]map[int]ItemNode),
		outcomes: make(map[string][]Outcome),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

func (m *MemStore) AddRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *MemStore) AddItem(_ context.Context, item ItemNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[item.RunID]; !ok {
		return fmt.Errorf("ledger: add item: unknown run %q", item.RunID)
	}
	byIndex, ok := m.items[item.RunID]
	if !ok {
		byIndex = make(map[int]ItemNode)
		m.items[item.RunID] = byIndex
	}
	byIndex[item.Index] = item
	return nil
}

func (m *MemStore) AddOutcome(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byIndex := m.items[o.RunID]
	if _, ok := byIndex[o.Winner]; !ok {
		return fmt.Errorf("ledger: add outcome: unknown item %s", ItemID(o.RunID, o.Winner))
	}
	if _, ok := byIndex[o.Loser]; !ok {
		return fmt.Errorf("ledger: add outcome: unknown item %s", ItemID(o.RunID, o.Loser))
	}
	m.outcomes[o.RunID] = append(m.outcomes[o.RunID], o)
	return nil
}

func (m *MemStore) GetRun(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemStore) ListRuns(_ context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	sortRuns(runs)
	return runs, nil
}

func (m *MemStore) Items(_ context.Context, runID string) ([]ItemNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]ItemNode, 0, len(m.items[runID]))
	for _, it := range m.items[runID] {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	return items, nil
}

func (m *MemStore) Outcomes(_ context.Context, runID string) ([]Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Outcome(nil), m.outcomes[runID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &Stats{RunCount: len(m.runs)}
	for _, byIndex := range m.items {
		s.ItemCount += len(byIndex)
	}
	for _, o := range m.outcomes {
		s.OutcomeCount += len(o)
	}
	return s, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// sortRuns orders runs by start time, then ID.
func sortRuns(runs []Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
