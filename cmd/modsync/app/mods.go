package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/modsync/internal/cmd/output"
)

type modRemoved struct {
	Removed string `json:"removed" yaml:"removed"`
}

func (a *App) newModsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mods",
		GroupID: "profile",
		Short:   "Inspect and edit the mods of a profile",
	}
	cmd.AddCommand(a.newModsListCommand(), a.newModsRemoveCommand())
	return cmd
}

func (a *App) newModsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <profile-dir>",
		Short: "List plugin folders of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			mods, err := c.ListMods(args[0], mustGetStringSlice(cmd, "disable"))
			if err != nil {
				return err
			}
			return a.print(mods, func() output.Data { return output.ModsTable(mods) })
		},
	}
	cmd.Flags().StringSlice("disable", nil, "mod name to mark as disabled (repeatable)")
	return cmd
}

func (a *App) newModsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <profile-dir> <name>",
		Aliases: []string{"rm"},
		Short:   "Delete the first plugin folder whose name contains <name>",
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			removed, err := c.RemoveMod(args[0], args[1])
			if err != nil {
				return err
			}
			a.logger.Info().Str("mod", removed).Msg("Removed mod")
			return a.print(modRemoved{Removed: removed}, nil)
		},
	}
}
