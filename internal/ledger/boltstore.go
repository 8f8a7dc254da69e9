package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Compile-time assertion: *BoltStore satisfies Store.
var _ Store = (*BoltStore)(nil)

var (
	bucketRuns     = []byte("runs")
	bucketItems    = []byte("items")
	bucketOutcomes = []byte("outcomes")
)

// BoltStore implements Store on a single bbolt file. Items and outcomes are
// keyed "runID/<zero padded index or seq>" so a prefix scan returns them in
// order.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt: create parent directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the buckets if they do not exist.
func (s *BoltStore) InitSchema(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketItems, bucketOutcomes} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("bolt: init schema: %w", err)
			}
		}
		return nil
	})
}

func (s *BoltStore) AddRun(_ context.Context, run Run) error {
	return s.put(bucketRuns, []byte(run.ID), run, nil)
}

func (s *BoltStore) AddItem(_ context.Context, item ItemNode) error {
	return s.put(bucketItems, seqKey(item.RunID, int64(item.Index)), item, func(tx *bolt.Tx) error {
		if tx.Bucket(bucketRuns).Get([]byte(item.RunID)) == nil {
			return fmt.Errorf("ledger: add item: unknown run %q", item.RunID)
		}
		return nil
	})
}

func (s *BoltStore) AddOutcome(_ context.Context, o Outcome) error {
	return s.put(bucketOutcomes, seqKey(o.RunID, o.Seq), o, func(tx *bolt.Tx) error {
		items := tx.Bucket(bucketItems)
		for _, idx := range []int{o.Winner, o.Loser} {
			if items.Get(seqKey(o.RunID, int64(idx))) == nil {
				return fmt.Errorf("ledger: add outcome: unknown item %s", ItemID(o.RunID, idx))
			}
		}
		return nil
	})
}

func (s *BoltStore) GetRun(_ context.Context, id string) (*Run, error) {
	var run *Run
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRuns).Get([]byte(id))
		if v == nil {
			return nil
		}
		run = new(Run)
		return json.Unmarshal(v, run)
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: get run: %w", err)
	}
	return run, nil
}

func (s *BoltStore) ListRuns(_ context.Context) ([]Run, error) {
	runs := []Run{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			runs = append(runs, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: list runs: %w", err)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *BoltStore) Items(_ context.Context, runID string) ([]ItemNode, error) {
	return scan[ItemNode](s.db, bucketItems, runID)
}

func (s *BoltStore) Outcomes(_ context.Context, runID string) ([]Outcome, error) {
	return scan[Outcome](s.db, bucketOutcomes, runID)
}

func (s *BoltStore) Stats(_ context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.db.View(func(tx *bolt.Tx) error {
		st.RunCount = tx.Bucket(bucketRuns).Stats().KeyN
		st.ItemCount = tx.Bucket(bucketItems).Stats().KeyN
		st.OutcomeCount = tx.Bucket(bucketOutcomes).Stats().KeyN
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: stats: %w", err)
	}
	return st, nil
}

// put encodes v as JSON and stores it under key after check passes.
func (s *BoltStore) put(bucket, key []byte, v any, check func(*bolt.Tx) error) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bolt: marshal: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if check != nil {
			if err := check(tx); err != nil {
				return err
			}
		}
		return tx.Bucket(bucket).Put(key, data)
	})
}

// scan decodes every value whose key starts with "runID/".
func scan[T any](db *bolt.DB, bucket []byte, runID string) ([]T, error) {
	out := []T{}
	prefix := []byte(runID + "/")
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: scan %s: %w", bucket, err)
	}
	return out, nil
}

// seqKey builds a key that sorts numerically within a run.
func seqKey(runID string, n int64) []byte {
	return []byte(fmt.Sprintf("%s/%016d", runID, n))
}
