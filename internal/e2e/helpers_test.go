//go:build e2e

package e2e

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/dusk-indust/judgesort/internal/a2a"
	"github.com/dusk-indust/judgesort/internal/agent"
	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// values extracts the two compared values from a rendered user message.
func values(userMessage string) (string, string) {
	first, rest, _ := strings.Cut(strings.TrimPrefix(userMessage, "First value: "), "\nSecond value: ")
	if i := strings.LastIndex(rest, "\n\n"); i >= 0 {
		rest = rest[:i]
	}
	return first, rest
}

// byLength answers "shorter first", ties keep their order.
func byLength(calls *atomic.Int64) oracle.JudgeFunc {
	return func(_ context.Context, req oracle.Request) (bool, error) {
		calls.Add(1)
		first, second := values(req.UserMessage)
		return utf8.RuneCountInString(first) <= utf8.RuneCountInString(second), nil
	}
}

// rockPaperScissors is a judge whose answers cannot be made consistent.
func rockPaperScissors() oracle.JudgeFunc {
	beats := map[string]string{"rock": "scissors", "scissors": "paper", "paper": "rock"}
	return func(_ context.Context, req oracle.Request) (bool, error) {
		first, second := values(req.UserMessage)
		return beats[first] == second, nil
	}
}

// remoteJudge serves judge from an in-process A2A agent and returns an
// oracle.Judge that reaches it over HTTP.
func remoteJudge(t *testing.T, judge oracle.Judge) oracle.Judge {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ag := agent.NewJudgeAgent(agent.JudgeCard("e2e-judge", "0", ""), judge, agent.WithLogger(logger))
	addr, err := ag.Start(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ag.Stop(context.Background()) })

	client := a2a.NewHTTPClient(a2a.WithClientLogger(logger))
	return oracle.NewA2AJudge(client, "http://"+addr.String(), logger)
}
