// Package mcptools exposes judge-driven sorting as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with sort_items and compare_items
// registered, plus find_contradictions when the service has a ledger.
func NewMCPServer(svc *SortService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "judgesort",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sort_items",
		Description: "Sort a list of text values by a natural-language instruction. Every pairwise decision is made by a language model, so the order follows meaning rather than byte values.",
	}, svc.SortItems)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_items",
		Description: "Ask the language model whether the first value should be placed at or before the second under an instruction.",
	}, svc.CompareItems)

	if svc.store != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "find_contradictions",
			Description: "Find cycles among the answers recorded by earlier sort_items calls. Each cycle is a set of values the model ordered inconsistently.",
		}, svc.FindContradictions)
	}

	return server
}

// RunStdio runs server on stdio, blocking until stdin is closed or ctx is
// cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves server over streamable HTTP on addr until ctx is
// cancelled. ready, if non-nil, receives the bound address.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string, ready func(net.Addr)) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
