package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/modsync"
	"github.com/agentstation/modsync/internal/cmd/output"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
)

func (a *App) newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		GroupID: "catalog",
		Short:   "Load and search a package catalog",
	}
	cmd.AddCommand(
		a.newCatalogLoadCommand(),
		a.newCatalogQueryCommand(),
		a.newCatalogLookupCommand(),
		a.newCatalogShowCommand(),
		a.newCatalogCategoriesCommand(),
	)
	return cmd
}

// loadStatus is printed by "catalog load" without --wait.
type loadStatus struct {
	Catalog catalog.ID `json:"catalog" yaml:"catalog"`
	Entries int        `json:"entries" yaml:"entries"`
	Cached  bool       `json:"cached" yaml:"cached"`
}

func (a *App) newCatalogLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <catalog>",
		Short: "Load a catalog and report how many entries are available",
		Long: `Load fetches the chunk index of a catalog and merges its first chunk.
Chunks already on disk are not downloaded again. With --wait the command
blocks until every chunk has been merged and prints a load summary.`,
		Example: "  modsync catalog load lethal-company --wait",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.ID(args[0])
			c, err := a.Client()
			if err != nil {
				return err
			}
			res, err := c.LoadCatalog(cmd.Context(), id)
			if err != nil {
				return err
			}

			if mustGetBool(cmd, "wait") {
				summary, err := res.Handle.WaitContext(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(summary, func() output.Data { return output.SummaryTable(summary) })
			}
			status := loadStatus{Catalog: id, Entries: res.Count, Cached: res.Cached}
			return a.print(status, nil)
		},
	}
	cmd.Flags().Bool("wait", false, "wait until every chunk is loaded")
	return cmd
}

// loadAndWait loads a catalog completely before a read command runs.
func (a *App) loadAndWait(cmd *cobra.Command, id catalog.ID) (modsync.Client, error) {
	c, err := a.Client()
	if err != nil {
		return nil, err
	}
	res, err := c.LoadCatalog(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	summary, err := res.Handle.WaitContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	if summary.Failed > 0 {
		a.logger.Warn().Int("failed_chunks", summary.Failed).Msg("Catalog is incomplete")
	}
	return c, nil
}

func (a *App) newCatalogQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <catalog>",
		Short: "Search, filter and sort catalog entries",
		Example: `  modsync catalog query lethal-company --search company --sort downloads
  modsync catalog query lethal-company --category Suits --page 2 --page-size 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := modsync.QueryOptions{
				Search:            mustGetString(cmd, "search"),
				Sort:              mustGetString(cmd, "sort"),
				Direction:         modsync.SortDirection(mustGetString(cmd, "direction")),
				Page:              mustGetInt(cmd, "page"),
				PageSize:          mustGetInt(cmd, "page-size"),
				ExcludeNSFW:       !mustGetBool(cmd, "nsfw"),
				ExcludeDeprecated: !mustGetBool(cmd, "deprecated"),
				Categories:        mustGetStringSlice(cmd, "category"),
				OnlyMods:          mustGetBool(cmd, "mods"),
				OnlyModpacks:      mustGetBool(cmd, "modpacks"),
			}
			if err := validateQuery(opts); err != nil {
				return err
			}

			id := catalog.ID(args[0])
			c, err := a.loadAndWait(cmd, id)
			if err != nil {
				return err
			}
			entries := c.Query(id, opts)
			return a.print(entries, func() output.Data { return output.EntriesTable(entries) })
		},
	}
	f := cmd.Flags()
	f.String("search", "", "case-insensitive substring of the package name")
	f.String("sort", "", "downloads, rating, updated, created or name")
	f.String("direction", "", "asc or desc (default depends on --sort)")
	f.Int("page", 0, "zero-indexed page number")
	f.Int("page-size", constants.DefaultPageSize, "entries per page, 0 for all")
	f.Bool("nsfw", false, "include NSFW packages")
	f.Bool("deprecated", false, "include deprecated packages")
	f.StringSlice("category", nil, "require a category (repeatable)")
	f.Bool("mods", false, "exclude modpacks")
	f.Bool("modpacks", false, "only modpacks")
	cmd.MarkFlagsMutuallyExclusive("mods", "modpacks")
	return cmd
}

func validateQuery(opts modsync.QueryOptions) error {
	switch opts.Direction {
	case "", modsync.Ascending, modsync.Descending:
	default:
		return errors.NewValidationError("direction", opts.Direction, "must be asc or desc")
	}
	if opts.Page < 0 {
		return errors.NewValidationError("page", opts.Page, "must not be negative")
	}
	if opts.PageSize > constants.MaxPageSize {
		return errors.NewValidationError("page-size", opts.PageSize, "must be at most 1000")
	}
	return nil
}

// lookupResult is printed by "catalog lookup".
type lookupResult struct {
	Found   []catalog.Entry `json:"found" yaml:"found"`
	Unknown []string        `json:"unknown" yaml:"unknown"`
}

func (a *App) newCatalogLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <catalog> <package>...",
		Short:   "Resolve package identifiers such as Owner-Name-1.2.3",
		Example: "  modsync catalog lookup lethal-company Evaisa-LethalLib-0.15.1 BepInEx-BepInExPack",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.ID(args[0])
			c, err := a.loadAndWait(cmd, id)
			if err != nil {
				return err
			}
			found, unknown := c.Lookup(id, args[1:])
			for _, name := range unknown {
				a.logger.Warn().Str("package", name).Msg("Package not in catalog")
			}
			return a.print(lookupResult{Found: found, Unknown: unknown}, func() output.Data {
				return output.EntriesTable(found)
			})
		},
	}
}

func (a *App) newCatalogCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories <catalog>",
		Short: "List the categories used in a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.ID(args[0])
			c, err := a.loadAndWait(cmd, id)
			if err != nil {
				return err
			}
			cats := c.Categories(id)
			return a.print(cats, func() output.Data { return output.ListTable("Category", cats) })
		},
	}
}

func (a *App) newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <catalog> <name>",
		Short: "Show one package by name or full name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.ID(args[0])
			c, err := a.loadAndWait(cmd, id)
			if err != nil {
				return err
			}
			entry, ok := c.FindPackage(id, args[1])
			if !ok {
				return errors.NewNotFoundError("package", args[1])
			}
			return a.print(entry, func() output.Data { return output.EntriesTable([]catalog.Entry{entry}) })
		},
	}
}
