package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dusk-indust/judgesort/internal/agent"
	"github.com/dusk-indust/judgesort/internal/mcptools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the judge to other programs",
	}
	cmd.AddCommand(newServeJudgeCmd(a), newServeMCPCmd(a))
	return cmd
}

func newServeJudgeCmd(a *app) *cobra.Command {
	var (
		f           judgeFlags
		addr        string
		taskTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Serve the configured judge as an A2A agent",
		Long: `Serve judge exposes the configured backend over the A2A protocol
(JSON-RPC over HTTP) so that other judgesort processes can use it with
backend: a2a and agentURL pointing here. The agent card is served at
/.well-known/agent-card.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f.apply(cmd, a.cfg, a.getenv)
			judge, err := newJudge(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}

			card := agent.JudgeCard("judgesort", version, "")
			ag := agent.NewJudgeAgent(card, judge,
				agent.WithLogger(a.logger),
				agent.WithTaskTimeout(taskTimeout))
			bound, err := ag.Start(ctx, addr)
			if err != nil {
				return fmt.Errorf("start judge agent: %w", err)
			}
			a.logger.Info("judge agent listening",
				zap.String("addr", bound.String()),
				zap.String("backend", a.cfg.Backend),
				zap.String("model", effectiveModel(a.cfg)))
			fmt.Fprintf(a.errOut, "judge agent listening on %s\n", advertised(bound))

			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ag.Stop(stopCtx)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":9411", "listen address")
	cmd.Flags().DurationVar(&taskTimeout, "task-timeout", 3*time.Minute, "limit on a single comparison task")
	return cmd
}

func newServeMCPCmd(a *app) *cobra.Command {
	var (
		f        judgeFlags
		httpAddr string
		parallel int
		memoize  bool
		ledgerAt string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve sort_items and compare_items as MCP tools",
		Long: `Serve mcp runs a Model Context Protocol server on stdio, or on streamable
HTTP with --http. With --ledger every sort_items call is recorded and the
find_contradictions tool is added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f.apply(cmd, a.cfg, a.getenv)
			if cmd.Flags().Changed("parallel") {
				a.cfg.Parallelism = parallel
			}
			if cmd.Flags().Changed("memoize") {
				a.cfg.Memoize = memoize
			}
			if cmd.Flags().Changed("ledger") {
				a.cfg.Ledger.Path = ledgerAt
			}
			judge, err := newJudge(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}

			opts := []mcptools.ServiceOption{
				mcptools.WithModel(a.cfg.Model),
				mcptools.WithParallelism(a.cfg.Parallelism),
				mcptools.WithMemo(a.cfg.Memoize),
				mcptools.WithLogger(a.logger),
			}
			store, err := openLedger(ctx, a.cfg.Ledger)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				opts = append(opts, mcptools.WithLedger(store))
			}

			server := mcptools.NewMCPServer(mcptools.NewSortService(judge, opts...))
			if httpAddr == "" {
				return mcptools.RunStdio(ctx, server)
			}
			return mcptools.RunHTTP(ctx, server, httpAddr, func(bound net.Addr) {
				fmt.Fprintf(a.errOut, "MCP server listening on %s\n", advertised(bound))
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "default concurrent judge calls per sort")
	cmd.Flags().BoolVar(&memoize, "memoize", false, "reuse answers for repeated identical pairs within a sort")
	cmd.Flags().StringVar(&ledgerAt, "ledger", "", "record sorts into this ledger")
	return cmd
}

// advertised turns a bound address into a URL a client can dial.
func advertised(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp.IP == nil || tcp.IP.IsUnspecified() {
		port := 0
		if ok {
			port = tcp.Port
		}
		return fmt.Sprintf("http://localhost:%d", port)
	}
	return "http://" + addr.String()
}
