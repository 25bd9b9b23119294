package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/store"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <seed-file>",
		Short: "Validate a venue seed file",
		Example: `  # Check a seed file before starting the server with it
  venuectl validate venues.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			venues, err := store.LoadSeed(args[0])
			if err != nil {
				return err
			}

			ids := make(map[string]bool, len(venues))
			for _, v := range venues {
				if v.ID != "" && ids[v.ID] {
					opts.logger.Warn("duplicate venue ID, only the first is seeded", zap.String("venue_id", v.ID))
					cmd.PrintErrf("warning: duplicate venue ID %q\n", v.ID)
				}
				ids[v.ID] = true
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d venues OK\n", args[0], len(venues))
			return nil
		},
	}
}
