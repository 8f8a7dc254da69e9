package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dusk-indust/judgesort/internal/export"
	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/spf13/cobra"
)

type auditFlags struct {
	ledgerPath    string
	ledgerBackend string
	runs          []string
	item          int
	direction     string
	depth         int
	mermaid       bool
}

func newAuditCmd(a *app) *cobra.Command {
	f := auditFlags{item: -1}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect a comparison ledger for chains and contradictions",
		Long: `Audit reads a ledger written by 'judgesort sort --ledger'. It lists the
recorded runs and every contradiction among their answers: sets of values
the judge ordered in a cycle. Answers are pooled by item text across runs,
so sorting the same values twice is enough to expose an inconsistent judge.

With --item N and a single --run, it prints the chains of answers above or
below item N instead. With --mermaid it prints the answer graph as a
Mermaid diagram with contradictions drawn in red.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, a, &f)
		},
	}
	cmd.Flags().StringVar(&f.ledgerPath, "ledger", "", "ledger to read (default: ledger.path from config)")
	cmd.Flags().StringVar(&f.ledgerBackend, "ledger-backend", "", "ledger backend: bolt or kuzu")
	cmd.Flags().StringSliceVar(&f.runs, "run", nil, "restrict to these run IDs (repeatable)")
	cmd.Flags().IntVar(&f.item, "item", -1, "print answer chains from this item index (needs exactly one --run)")
	cmd.Flags().StringVar(&f.direction, "direction", string(ledger.DirectionBelow), "chain direction: above or below")
	cmd.Flags().IntVar(&f.depth, "depth", 5, "maximum chain length")
	cmd.Flags().BoolVar(&f.mermaid, "mermaid", false, "print a Mermaid diagram")
	return cmd
}

func runAudit(cmd *cobra.Command, a *app, f *auditFlags) error {
	ctx := cmd.Context()
	lc := a.cfg.Ledger
	if f.ledgerPath != "" {
		lc.Path = f.ledgerPath
	}
	if f.ledgerBackend != "" {
		lc.Backend = f.ledgerBackend
	}
	if lc.Path == "" {
		return errors.New("no ledger: pass --ledger or set ledger.path in the config")
	}
	if lc.Backend == "memory" {
		return errors.New("a memory ledger does not outlive the sort that wrote it")
	}

	store, err := openLedger(ctx, lc)
	if err != nil {
		return err
	}
	defer store.Close()

	if f.mermaid {
		diagram, err := export.GenerateMermaid(ctx, store, f.runs...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(a.out, diagram)
		return err
	}

	if f.item >= 0 {
		if len(f.runs) != 1 {
			return errors.New("--item needs exactly one --run")
		}
		dir := ledger.Direction(f.direction)
		if dir != ledger.DirectionAbove && dir != ledger.DirectionBelow {
			return fmt.Errorf("unknown direction %q (want above or below)", f.direction)
		}
		return printChains(cmd, a, store, f.runs[0], f.item, dir, f.depth)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(f.runs) > 0 {
		want := make(map[string]bool, len(f.runs))
		for _, id := range f.runs {
			want[id] = true
		}
		kept := runs[:0]
		for _, r := range runs {
			if want[r.ID] {
				kept = append(kept, r)
			}
		}
		runs = kept
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tITEMS\tCOMPARISONS\tSTARTED\tINSTRUCTION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.Status, r.ItemCount, r.Comparisons, r.StartedAt.Format(time.RFC3339), clip(r.Instruction, 50))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	found, err := ledger.FindContradictions(ctx, store, ids...)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		found = nil
	}
	if len(found) == 0 {
		_, err = fmt.Fprintln(a.out, "\nNo contradictions.")
		return err
	}
	fmt.Fprintf(a.out, "\n%d contradiction(s):\n", len(found))
	for i, c := range found {
		quoted := make([]string, len(c.Cycle))
		for j, text := range c.Cycle {
			quoted[j] = fmt.Sprintf("%q", clip(text, 40))
		}
		fmt.Fprintf(a.out, "  %d. %d values, e.g. %s\n", i+1, len(c.Items), strings.Join(quoted, " before "))
	}
	return nil
}

func printChains(cmd *cobra.Command, a *app, store ledger.Store, runID string, item int, dir ledger.Direction, depth int) error {
	items, err := store.Items(cmd.Context(), runID)
	if err != nil {
		return err
	}
	text := make(map[int]string, len(items))
	for _, it := range items {
		text[it.Index] = it.Text
	}
	if _, ok := text[item]; !ok {
		return fmt.Errorf("run %s has no item %d", runID, item)
	}

	chains, err := ledger.GetChains(cmd.Context(), store, runID, item, dir, depth)
	if err != nil {
		return err
	}
	if len(chains) == 0 {
		_, err = fmt.Fprintf(a.out, "No answers %s item %d.\n", dir, item)
		return err
	}
	for _, c := range chains {
		parts := make([]string, len(c.Items))
		for i, idx := range c.Items {
			parts[i] = fmt.Sprintf("[%d] %q", idx, clip(text[idx], 40))
		}
		sep := " -> "
		if dir == ledger.DirectionAbove {
			sep = " <- "
		}
		if _, err := fmt.Fprintln(a.out, strings.Join(parts, sep)); err != nil {
			return err
		}
	}
	return nil
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
