package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory opens a fresh store with its schema initialized.
type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	f := map[string]storeFactory{
		"mem": func(t *testing.T) Store {
			s, err := Open(context.Background(), BackendMemory, "")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"bolt": func(t *testing.T) Store {
			s, err := Open(context.Background(), BackendBolt, filepath.Join(t.TempDir(), "ledger", "runs.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
	for name, fn := range extraFactories() {
		f[name] = fn
	}
	return f
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// seed writes a run with items a, b, c and the answers a<b, b<c, a<c.
func seed(t *testing.T, s Store, runID string, started time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.AddRun(ctx, Run{ID: runID, Instruction: "alphabetical", ItemCount: 3, Status: RunStatusRunning, StartedAt: started}))
	for i, text := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddItem(ctx, ItemNode{RunID: runID, Index: i, Text: text}))
	}
	require.NoError(t, s.AddOutcome(ctx, Outcome{RunID: runID, Seq: 2, Winner: 1, Loser: 2, Depth: 1}))
	require.NoError(t, s.AddOutcome(ctx, Outcome{RunID: runID, Seq: 1, Winner: 0, Loser: 1, Depth: 0}))
	require.NoError(t, s.AddOutcome(ctx, Outcome{RunID: runID, Seq: 3, Winner: 0, Loser: 2, Depth: 0, Memoized: true}))
}

func TestStores(t *testing.T) {
	for name, open := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("InitSchemaIdempotent", func(t *testing.T) {
				s := open(t)
				require.NoError(t, s.InitSchema(context.Background()))
			})

			t.Run("RunRoundTrip", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				seed(t, s, "run-1", t0)

				got, err := s.GetRun(ctx, "run-1")
				require.NoError(t, err)
				require.NotNil(t, got)
				want := Run{ID: "run-1", Instruction: "alphabetical", ItemCount: 3, Status: RunStatusRunning, StartedAt: t0}
				if diff := cmp.Diff(want, *got); diff != "" {
					t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
				}

				missing, err := s.GetRun(ctx, "nope")
				require.NoError(t, err)
				assert.Nil(t, missing)
			})

			t.Run("AddRunReplaces", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				seed(t, s, "run-1", t0)

				finished := Run{
					ID: "run-1", Instruction: "alphabetical", ItemCount: 3,
					Status: RunStatusFailed, Comparisons: 3, Error: "oracle unavailable",
					StartedAt: t0, FinishedAt: t0.Add(time.Minute),
				}
				require.NoError(t, s.AddRun(ctx, finished))

				got, err := s.GetRun(ctx, "run-1")
				require.NoError(t, err)
				if diff := cmp.Diff(finished, *got); diff != "" {
					t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
				}
				runs, err := s.ListRuns(ctx)
				require.NoError(t, err)
				assert.Len(t, runs, 1)
			})

			t.Run("ListRunsOrdered", func(t *testing.T) {
				s := open(t)
				seed(t, s, "late", t0.Add(time.Hour))
				seed(t, s, "early", t0)

				runs, err := s.ListRuns(context.Background())
				require.NoError(t, err)
				require.Len(t, runs, 2)
				assert.Equal(t, "early", runs[0].ID)
				assert.Equal(t, "late", runs[1].ID)
			})

			t.Run("ItemsAndOutcomesPerRun", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				seed(t, s, "run-1", t0)
				seed(t, s, "run-10", t0)

				items, err := s.Items(ctx, "run-1")
				require.NoError(t, err)
				want := []ItemNode{{"run-1", 0, "a"}, {"run-1", 1, "b"}, {"run-1", 2, "c"}}
				if diff := cmp.Diff(want, items); diff != "" {
					t.Errorf("Items mismatch (-want +got):\n%s", diff)
				}

				outcomes, err := s.Outcomes(ctx, "run-1")
				require.NoError(t, err)
				wantOut := []Outcome{
					{RunID: "run-1", Seq: 1, Winner: 0, Loser: 1, Depth: 0},
					{RunID: "run-1", Seq: 2, Winner: 1, Loser: 2, Depth: 1},
					{RunID: "run-1", Seq: 3, Winner: 0, Loser: 2, Depth: 0, Memoized: true},
				}
				if diff := cmp.Diff(wantOut, outcomes); diff != "" {
					t.Errorf("Outcomes mismatch (-want +got):\n%s", diff)
				}

				empty, err := s.Outcomes(ctx, "nope")
				require.NoError(t, err)
				assert.Empty(t, empty)
			})

			t.Run("RejectsDanglingReferences", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				assert.Error(t, s.AddItem(ctx, ItemNode{RunID: "ghost", Index: 0, Text: "x"}))

				seed(t, s, "run-1", t0)
				assert.Error(t, s.AddOutcome(ctx, Outcome{RunID: "run-1", Seq: 9, Winner: 0, Loser: 7}))
			})

			t.Run("Stats", func(t *testing.T) {
				s := open(t)
				seed(t, s, "run-1", t0)
				seed(t, s, "run-2", t0)

				st, err := s.Stats(context.Background())
				require.NoError(t, err)
				assert.Equal(t, &Stats{RunCount: 2, ItemCount: 6, OutcomeCount: 6}, st)
			})

			t.Run("ConcurrentOutcomes", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				require.NoError(t, s.AddRun(ctx, Run{ID: "run", StartedAt: t0}))
				for i := 0; i < 10; i++ {
					require.NoError(t, s.AddItem(ctx, ItemNode{RunID: "run", Index: i}))
				}
				var wg sync.WaitGroup
				for i := 0; i < 9; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						assert.NoError(t, s.AddOutcome(ctx, Outcome{RunID: "run", Seq: int64(i + 1), Winner: i, Loser: i + 1}))
					}(i)
				}
				wg.Wait()

				outcomes, err := s.Outcomes(ctx, "run")
				require.NoError(t, err)
				require.Len(t, outcomes, 9)
				for i, o := range outcomes {
					assert.Equal(t, int64(i+1), o.Seq)
				}
			})
		})
	}
}

func TestBoltStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(ctx, BackendBolt, path)
	require.NoError(t, err)
	seed(t, s, "run-1", t0)
	require.NoError(t, s.Close())

	s, err = Open(ctx, BackendBolt, path)
	require.NoError(t, err)
	defer s.Close()

	outcomes, err := s.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "x")
	assert.ErrorContains(t, err, "unknown backend")

	_, err = Open(context.Background(), BackendBolt, "")
	assert.Error(t, err)
}
