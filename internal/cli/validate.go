package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/af-corp/amrs/internal/inference"
)

// NewValidateCmd resolves the routing document and prints the descriptors it
// would serve, or the first error that rejects it.
func NewValidateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Resolve and validate the routing configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Mode: %s, models: %d\n", set.Router.Mode(), len(set.Models))
			for _, m := range set.Models {
				fmt.Fprintf(out, "  %s provider=%s base_url=%s temperature=%g max_tokens=%d weight=%d\n",
					m.ID, m.Provider, m.BaseURL, m.Temperature, m.MaxTokens, m.Weight)
			}
			return nil
		},
	}
}
