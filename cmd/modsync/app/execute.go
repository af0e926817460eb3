package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/modsync/internal/cmd/output"
	"github.com/agentstation/modsync/internal/config"
	"github.com/agentstation/modsync/pkg/logging"
)

// Execute runs the CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "modsync",
		Short:   "Mod catalog cache and profile deployment",
		Version: a.version,
		Long: `modsync keeps a local cache of a Thunderstore package catalog that can be
searched while it is still loading, and deploys mod profiles into game
installations, leaving disabled mods out.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "catalog", Title: "Catalog Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "profile", Title: "Profile Commands:"})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.ConfigFile, "config", "", "config file (default is $HOME/.modsync.yaml)")
	pf.BoolVarP(&a.flags.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&a.flags.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&a.flags.NoColor, "no-color", false, "disable colored output")
	pf.StringVarP(&a.flags.Format, "format", "o", "", "output format: table, json, yaml")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.String("cache-dir", "", "directory for persisted catalog chunks")
	pf.String("base-url", "", "package repository base URL")
	_ = a.viper.BindPFlag("cache_dir", pf.Lookup("cache-dir"))
	_ = a.viper.BindPFlag("api_base_url", pf.Lookup("base-url"))

	rootCmd.SetVersionTemplate("modsync {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand loads configuration once flags are parsed and rebuilds the
// logger from it.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if _, err := output.ParseFormat(a.flags.Format); err != nil {
		return err
	}
	if a.flags.ConfigFile != "" {
		a.viper.Set("config", a.flags.ConfigFile)
	}

	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.config = cfg

	logger := NewLogger(a.flags, cfg)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	if cfg.ConfigFile != "" {
		a.logger.Debug().Str("file", cfg.ConfigFile).Msg("Loaded config file")
	}
	return nil
}

func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.newCatalogCommand())
	rootCmd.AddCommand(a.newCacheCommand())
	rootCmd.AddCommand(a.newDeployCommand())
	rootCmd.AddCommand(a.newModsCommand())
	rootCmd.AddCommand(a.newVersionCommand())
}

// format returns the output format for this run.
func (a *App) format() output.Format {
	return output.DetectFormat(a.flags.Format)
}

// print writes data in the selected format.
func (a *App) print(data any, toTable func() output.Data) error {
	return output.Print(a.out, a.format(), data, toTable)
}

// ExitOnError prints err and exits with status 1. A nil err is a no-op.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetInt retrieves an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
