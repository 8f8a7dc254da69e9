//go:build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/judgesort/internal/export"
	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/dusk-indust/judgesort/internal/sorter"
	"github.com/dusk-indust/judgesort/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestPipeline_RemoteJudgeWithLedger sorts YAML items through a judge agent,
// records the run in a bolt ledger and reads it back.
func TestPipeline_RemoteJudgeWithLedger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	items, err := source.Read(ctx, strings.NewReader("- kiwi\n- fig\n- banana\n- watermelon\n- pear\n"), source.FormatYAML, "fruit.yaml")
	require.NoError(t, err)

	store, err := ledger.Open(ctx, ledger.BackendBolt, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()
	rec := ledger.NewRecorder(store, zaptest.NewLogger(t))

	var calls atomic.Int64
	cmp := oracle.NewClient[string](oracle.Retrying(remoteJudge(t, byLength(&calls)), 2, 10*time.Millisecond, nil))
	sorted, stats, err := sorter.New[string](cmp,
		sorter.WithParallelism(3),
		sorter.WithObserver(rec),
	).SortWithStats(ctx, items, "shortest first")
	require.NoError(t, err)

	assert.Equal(t, []string{"fig", "kiwi", "pear", "banana", "watermelon"}, sorted)
	assert.Equal(t, calls.Load(), stats.OracleCalls)
	assert.Zero(t, rec.Failures())

	run, err := store.GetRun(ctx, stats.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, ledger.RunStatusCompleted, run.Status)
	assert.Equal(t, stats.Comparisons, run.Comparisons)

	outcomes, err := store.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, outcomes, int(stats.Comparisons))

	found, err := ledger.FindContradictions(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, found)
}

// TestPipeline_IntransitiveJudgeIsExposed sorts the same three values in
// several orders through an intransitive remote judge. Every sort succeeds,
// and the pooled ledger shows the cycle.
func TestPipeline_IntransitiveJudgeIsExposed(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemStore()
	s := sorter.New[string](
		oracle.NewClient[string](remoteJudge(t, rockPaperScissors())),
		sorter.WithObserver(ledger.NewRecorder(store, nil)),
	)

	for _, order := range [][]string{
		{"rock", "paper", "scissors"},
		{"scissors", "rock", "paper"},
		{"paper", "scissors", "rock"},
		{"rock", "scissors"},
		{"scissors", "paper"},
		{"paper", "rock"},
	} {
		got, err := s.Sort(ctx, order, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, order, got)
	}

	found, err := ledger.FindContradictions(ctx, store)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"paper", "rock", "scissors"}, found[0].Items)

	diagram, err := export.GenerateMermaid(ctx, store)
	require.NoError(t, err)
	assert.Contains(t, diagram, "stroke:#d33")
}

// TestPipeline_RemoteFailureKeepsKind checks that a credential failure on
// the agent side reaches the sorter's caller with its kind intact.
func TestPipeline_RemoteFailureKeepsKind(t *testing.T) {
	failing := oracle.JudgeFunc(func(context.Context, oracle.Request) (bool, error) {
		return false, &oracle.Error{Kind: oracle.KindCredentials, Backend: "upstream", Message: "key revoked"}
	})
	cmp := oracle.NewClient[string](remoteJudge(t, failing))

	_, err := sorter.New[string](cmp).Sort(context.Background(), []string{"b", "a"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrCredentials)

	var cerr *sorter.ComparisonError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "b", cerr.First.Text)
}

// TestLive_OpenRouter sorts a small list against the real OpenRouter API.
// It is skipped unless OPENROUTER_API_KEY is set.
func TestLive_OpenRouter(t *testing.T) {
	key := os.Getenv("OPENROUTER_API_KEY")
	if key == "" {
		t.Skip("OPENROUTER_API_KEY not set")
	}

	judge := oracle.NewOpenRouterJudge(oracle.DefaultOpenRouterConfig(key),
		oracle.WithOpenRouterLogger(zaptest.NewLogger(t)))
	cmp := oracle.NewClient[string](oracle.Retrying(judge, 2, time.Second, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	got, err := sorter.New[string](cmp, sorter.WithParallelism(2)).
		Sort(ctx, []string{"ten", "two", "seven", "one"}, "Sort the numbers written as English words in ascending numeric order.")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "seven", "ten"}, got)
}
