package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd prints the compiled version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show amrs version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "amrs", Version)
		},
	}
}
