package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/af-corp/amrs/internal/inference"
	"github.com/af-corp/amrs/internal/types"
)

// NewSampleCmd draws from the configured router and prints the observed
// distribution next to the expected one.
func NewSampleCmd(opts *Options) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print the selection distribution of the configured router",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("-n must be positive, got %d", n)
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			creds, err := credentials(opts)
			if err != nil {
				return err
			}
			set, err := inference.BuildSet(cfg, creds)
			if err != nil {
				return fmt.Errorf("invalid routing config: %w", err)
			}

			counts := make(map[string]int, len(set.Models))
			req := &types.Request{}
			for i := 0; i < n; i++ {
				counts[set.Router.Sample(req)]++
			}

			totalWeight := 0
			for _, m := range set.Models {
				totalWeight += m.Weight
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode: %s, draws: %d\n", set.Router.Mode(), n)
			for _, m := range set.Models {
				expected := 1 / float64(len(set.Models))
				if set.Router.Mode().Weighted() {
					expected = float64(m.Weight) / float64(totalWeight)
				}
				fmt.Fprintf(out, "  %s count=%d share=%.4f expected=%.4f\n",
					m.ID, counts[m.ID], float64(counts[m.ID])/float64(n), expected)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "num", "n", 1000, "Number of draws")
	return cmd
}
