package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dusk-indust/judgesort/internal/export"
	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/dusk-indust/judgesort/internal/sorter"
	"github.com/dusk-indust/judgesort/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sortFlags struct {
	judgeFlags
	instruction   string
	format        string
	output        string
	parallel      int
	memoize       bool
	strict        bool
	ledgerPath    string
	ledgerBackend string
}

func newSortCmd(a *app) *cobra.Command {
	var f sortFlags
	cmd := &cobra.Command{
		Use:   "sort [FILE|-]",
		Short: "Sort the items of a file or stdin",
		Long: `Sort reads items from FILE (or stdin when FILE is "-" or omitted) and
writes them back in the order the judge decides.

Items are one per non-empty line by default. JSON arrays, YAML sequences and
source files (top-level declarations) are detected from the file extension or
chosen with --format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd, a, &f, args)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.instruction, "instruction", "i", "", "ordering criterion (default: ascending by meaning)")
	cmd.Flags().StringVar(&f.format, "format", "", "input format: lines, json, yaml or code (default: from extension)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 1, "maximum concurrent judge calls")
	cmd.Flags().BoolVar(&f.memoize, "memoize", false, "reuse answers for repeated identical pairs within this sort")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "reject blank items before asking the judge")
	cmd.Flags().StringVar(&f.ledgerPath, "ledger", "", "record every comparison into this ledger")
	cmd.Flags().StringVar(&f.ledgerBackend, "ledger-backend", "", "ledger backend: bolt, kuzu or memory")
	return cmd
}

func runSort(cmd *cobra.Command, a *app, f *sortFlags, args []string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	f.apply(cmd, cfg, a.getenv)
	if cmd.Flags().Changed("instruction") {
		cfg.Instruction = f.instruction
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Parallelism = f.parallel
	}
	if cmd.Flags().Changed("memoize") {
		cfg.Memoize = f.memoize
	}
	if cmd.Flags().Changed("strict") {
		cfg.StrictInput = f.strict
	}
	if cmd.Flags().Changed("ledger") {
		cfg.Ledger.Path = f.ledgerPath
	}
	if cmd.Flags().Changed("ledger-backend") {
		cfg.Ledger.Backend = f.ledgerBackend
	}
	if f.output != "text" && f.output != "json" {
		return fmt.Errorf("unknown output %q (want text or json)", f.output)
	}

	items, err := readItems(cmd, a, f.format, args)
	if err != nil {
		return err
	}

	judge, err := newJudge(ctx, cfg, a.logger)
	if err != nil {
		return err
	}

	opts := []sorter.Option{
		sorter.WithLogger(a.logger),
		sorter.WithParallelism(cfg.Parallelism),
		sorter.WithMemo(cfg.Memoize),
		sorter.WithStrictInput(cfg.StrictInput),
		sorter.WithProgress(func(e sorter.Event) {
			if e.Kind == sorter.EventMergeCompleted {
				a.logger.Debug("merge completed",
					zap.Int("depth", e.Depth),
					zap.Int("size", e.Left+e.Right),
					zap.Int("comparisons", e.Comparisons))
			}
		}),
	}

	store, err := openLedger(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	var rec *ledger.Recorder
	if store != nil {
		defer store.Close()
		rec = ledger.NewRecorder(store, a.logger)
		opts = append(opts, sorter.WithObserver(rec))
	}

	cmp := oracle.NewClient[string](judge, oracle.WithModel[string](cfg.Model))
	sorted, stats, err := sorter.New[string](cmp, opts...).SortWithStats(ctx, items, cfg.Instruction)
	if err != nil {
		return err
	}
	if rec != nil && rec.Failures() > 0 {
		a.logger.Warn("ledger incomplete", zap.Int64("failedWrites", rec.Failures()))
	}

	if f.output == "text" {
		return export.WriteText(a.out, sorted)
	}
	instruction := cfg.Instruction
	if instruction == "" {
		instruction = sorter.DefaultInstruction
	}
	report := export.Report{
		RunID:       stats.RunID,
		Backend:     cfg.Backend,
		Model:       effectiveModel(cfg),
		Instruction: instruction,
		Items:       sorted,
		Comparisons: stats.Comparisons,
		OracleCalls: stats.OracleCalls,
		MemoHits:    stats.MemoHits,
	}
	report.Stamp(stats.Elapsed, time.Now())
	return export.WriteJSON(a.out, report)
}

// readItems reads the input named by args, or stdin.
func readItems(cmd *cobra.Command, a *app, formatFlag string, args []string) ([]string, error) {
	name := "-"
	if len(args) == 1 {
		name = args[0]
	}

	format := source.FormatFromPath(name)
	if formatFlag != "" {
		var err error
		if format, err = source.ParseFormat(formatFlag); err != nil {
			return nil, err
		}
	}

	var r io.Reader = a.in
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		r = file
	}

	items, err := source.Read(cmd.Context(), r, format, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	a.logger.Debug("items read", zap.String("input", name), zap.String("format", string(format)), zap.Int("count", len(items)))
	return items, nil
}
