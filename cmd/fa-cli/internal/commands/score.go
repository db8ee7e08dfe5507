package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"foreclosure-assist/internal/property"
	"foreclosure-assist/internal/risk"
)

func newScoreCommand() *cobra.Command {
	var answersJSON string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score questionnaire answers (JSON via --answers or stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var raw []byte
			if answersJSON != "" {
				raw = []byte(answersJSON)
			} else {
				in := cmd.InOrStdin()
				if in == os.Stdin {
					if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
						return fmt.Errorf("pass --answers or pipe JSON on stdin")
					}
				}
				var err error
				if raw, err = io.ReadAll(in); err != nil {
					return fmt.Errorf("read answers: %w", err)
				}
			}

			var answers risk.Answers
			if err := json.Unmarshal(raw, &answers); err != nil {
				return fmt.Errorf("invalid answers JSON: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), risk.Score(answers))
		},
	}
	cmd.Flags().StringVar(&answersJSON, "answers", "", `answers JSON, e.g. {"missed_payments":3,"income_loss":true}`)
	return cmd
}

func newEstimateCommand() *cobra.Command {
	var (
		sqft  float64
		comps []string
	)
	cmd := &cobra.Command{
		Use:     "estimate",
		Short:   "Estimate value from comparable sales",
		Example: `  fa-cli estimate --sqft 1500 --comp 300000:1400 --comp 280000:1350`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sqft <= 0 {
				return fmt.Errorf("--sqft must be positive")
			}
			parsed := make([]property.Comparable, 0, len(comps))
			for _, c := range comps {
				var comp property.Comparable
				if _, err := fmt.Sscanf(c, "%f:%f", &comp.Price, &comp.Sqft); err != nil {
					return fmt.Errorf("invalid --comp %q, want price:sqft", c)
				}
				parsed = append(parsed, comp)
			}
			est, err := property.EstimateValue(sqft, parsed)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), est)
		},
	}
	cmd.Flags().Float64Var(&sqft, "sqft", 0, "subject property size in square feet")
	cmd.Flags().StringArrayVar(&comps, "comp", nil, "comparable sale as price:sqft (repeatable)")
	return cmd
}
