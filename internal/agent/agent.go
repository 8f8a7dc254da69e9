// Package agent hosts judgment oracles as A2A agents so that sort engines on
// other machines can share one configured backend.
package agent

import (
	"context"
	"net"

	"github.com/dusk-indust/judgesort/internal/a2a"
)

// Agent is an A2A agent that can be served over HTTP.
type Agent interface {
	// Card returns the agent's Agent Card.
	Card() a2a.AgentCard

	// HandleTask processes a task and returns it in a terminal state.
	HandleTask(ctx context.Context, task a2a.Task, msg a2a.Message) (*a2a.Task, error)

	// Start launches the agent's HTTP server on addr and returns the bound
	// address.
	Start(ctx context.Context, addr string) (net.Addr, error)

	// Stop gracefully shuts down the agent.
	Stop(ctx context.Context) error
}
