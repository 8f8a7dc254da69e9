package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []string{"plain", "two\nlines", `back\slash`, ""}))
	assert.Equal(t, "plain\ntwo\\nlines\nback\\\\slash\n\n", buf.String())
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, WriteText(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteJSON(t *testing.T) {
	r := Report{
		RunID:       "run-1",
		Backend:     "openrouter",
		Model:       "openai/gpt-5.2",
		Instruction: "smallest first",
		Items:       []string{"one", "two"},
		Comparisons: 1,
		OracleCalls: 1,
	}
	r.Stamp(1500*time.Millisecond, time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["runId"])
	assert.Equal(t, []any{"one", "two"}, got["items"])
	assert.EqualValues(t, 1500, got["elapsedMs"])
	assert.Equal(t, "2026-03-01T11:00:00Z", got["exportedAt"])
	assert.NotContains(t, got, "memoHits")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, Report{}))
	assert.Contains(t, buf.String(), `"items": []`)
}

func seedRun(t *testing.T, s ledger.Store, id string, texts []string, outcomes ...[2]int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.AddRun(ctx, ledger.Run{ID: id, ItemCount: len(texts)}))
	for i, text := range texts {
		require.NoError(t, s.AddItem(ctx, ledger.ItemNode{RunID: id, Index: i, Text: text}))
	}
	for i, o := range outcomes {
		require.NoError(t, s.AddOutcome(ctx, ledger.Outcome{RunID: id, Seq: int64(i + 1), Winner: o[0], Loser: o[1]}))
	}
}

func TestGenerateMermaid_SingleRun(t *testing.T) {
	s := ledger.NewMemStore()
	seedRun(t, s, "r1", []string{"b", "a", "c"}, [2]int{1, 0}, [2]int{0, 2})

	got, err := GenerateMermaid(context.Background(), s, "r1")
	require.NoError(t, err)
	assert.Equal(t, `graph TD
  N0["b"]
  N1["a"]
  N2["c"]
  N1 --> N0
  N0 --> N2
`, got)
}

func TestGenerateMermaid_HighlightsContradictions(t *testing.T) {
	s := ledger.NewMemStore()
	seedRun(t, s, "r1", []string{"rock", "scissors", "lizard"}, [2]int{0, 1}, [2]int{2, 0})
	seedRun(t, s, "r2", []string{"scissors", "paper"}, [2]int{0, 1})
	seedRun(t, s, "r3", []string{"paper", "rock"}, [2]int{0, 1})

	got, err := GenerateMermaid(context.Background(), s)
	require.NoError(t, err)

	assert.Contains(t, got, "N0 --> N1\n")
	assert.Equal(t, 4, strings.Count(got, "-->"))
	assert.Contains(t, got, "linkStyle 0 stroke:#d33")
	assert.NotContains(t, got, "linkStyle 1 ", "lizard -> rock is outside the cycle")
	assert.Contains(t, got, "linkStyle 2 stroke:#d33")
	assert.Contains(t, got, "linkStyle 3 stroke:#d33")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "say #quot;hi#quot; twice", label("say \"hi\"\n  twice"))
	long := strings.Repeat("x", 60)
	assert.Equal(t, strings.Repeat("x", 37)+"...", label(long))
}
