package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/modsync/internal/cmd/output"
)

func (a *App) newDeployCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy <profile-dir> <game-dir>",
		GroupID: "profile",
		Short:   "Deploy a mod profile into a game directory",
		Long: `Deploy copies the mod loader runtime and every enabled plugin folder of a
profile into the game directory. Plugin folders in the game directory that
are disabled or no longer in the profile are removed. Files that are
already up to date are not copied again.`,
		Example: `  modsync deploy ~/profiles/default ~/games/LethalCompany
  modsync deploy ./profile ./game --disable MoreCompany --disable LateGame`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			disabled := mustGetStringSlice(cmd, "disable")
			if mustGetBool(cmd, "dry-run") {
				mods, err := c.ListMods(args[0], disabled)
				if err != nil {
					return err
				}
				return a.print(mods, func() output.Data { return output.ModsTable(mods) })
			}

			res, err := c.Deploy(cmd.Context(), args[0], args[1], disabled)
			if err != nil {
				return err
			}
			return a.print(res, func() output.Data { return output.DeployTable(res) })
		},
	}
	cmd.Flags().StringSlice("disable", nil, "mod name to leave out (repeatable)")
	cmd.Flags().String("match", "", "how disabled names match folders: substring, exact, glob")
	cmd.Flags().Bool("dry-run", false, "list which mods would be deployed without copying")
	cmd.Flags().Bool("prune", false, "delete files in deployed mod folders that the profile no longer has")
	_ = a.viper.BindPFlag("match_mode", cmd.Flags().Lookup("match"))
	_ = a.viper.BindPFlag("prune_mod_files", cmd.Flags().Lookup("prune"))
	return cmd
}
