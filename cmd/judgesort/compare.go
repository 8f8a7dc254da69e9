package main

import (
	"encoding/json"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/spf13/cobra"
)

func newCompareCmd(a *app) *cobra.Command {
	var (
		f           judgeFlags
		instruction string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "compare FIRST SECOND",
		Short: "Ask the judge whether FIRST should be placed at or before SECOND",
		Long: `Compare asks a single question and prints true or false. The question is
asymmetric: swapping FIRST and SECOND is a different question, and a judge
is not guaranteed to answer it consistently.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg, a.getenv)
			if !cmd.Flags().Changed("instruction") {
				instruction = a.cfg.Instruction
			}
			judge, err := newJudge(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			cmp := oracle.NewClient[string](judge, oracle.WithModel[string](a.cfg.Model))
			ok, err := cmp.Compare(cmd.Context(), args[0], args[1], instruction)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(a.out).Encode(map[string]bool{"firstPrecedes": ok})
			}
			_, err = fmt.Fprintln(a.out, ok)
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "ordering criterion (default: ascending order)")
	cmd.Flags().BoolVar(&asJSON, "json", false, `print {"firstPrecedes": bool}`)
	return cmd
}
