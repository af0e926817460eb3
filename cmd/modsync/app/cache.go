package app

import (
	"github.com/spf13/cobra"
)

type cacheCleared struct {
	Removed int `json:"removed" yaml:"removed"`
}

func (a *App) newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		GroupID: "catalog",
		Short:   "Manage the on-disk chunk cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached chunk and forget fetched indexes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			n, err := c.ClearCache()
			if err != nil {
				return err
			}
			a.logger.Info().Int("removed", n).Msg("Cleared chunk cache")
			return a.print(cacheCleared{Removed: n}, nil)
		},
	})
	return cmd
}
