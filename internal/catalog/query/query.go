// Package query filters, sorts and paginates the entries of a loaded catalog.
package query

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
)

// Source is the read side of the in-memory catalog store.
type Source interface {
	Get(id catalog.ID) []catalog.Entry
}

// SortField names a sort key.
type SortField string

// Sort keys. Unknown keys leave the filtered order unchanged.
const (
	SortNone      SortField = ""
	SortDownloads SortField = "downloads"
	SortRating    SortField = "rating"
	SortUpdated   SortField = "updated"
	SortCreated   SortField = "created"
	SortName      SortField = "name"
)

var sortAliases = map[string]SortField{
	"downloads":       SortDownloads,
	"most_downloaded": SortDownloads,
	"rating":          SortRating,
	"top_rated":       SortRating,
	"updated":         SortUpdated,
	"last_updated":    SortUpdated,
	"created":         SortCreated,
	"newest":          SortCreated,
	"name":            SortName,
	"alphabetical":    SortName,
}

// ParseSort resolves a sort key or one of its aliases. The bool is false
// for unknown keys.
func ParseSort(s string) (SortField, bool) {
	f, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}

// Direction is a sort direction.
type Direction string

// Directions. The zero value picks the natural direction of the sort key.
const (
	DirectionDefault Direction = ""
	Ascending        Direction = "asc"
	Descending       Direction = "desc"
)

// Options describes one query.
type Options struct {
	Search            string    // Case-insensitive substring of name or full name
	Sort              string    // Sort key or alias, see ParseSort
	Direction         Direction // Overrides the natural direction
	Page              int       // Zero-indexed
	PageSize          int       // <= 0 returns everything from the first page
	ExcludeNSFW       bool
	ExcludeDeprecated bool
	Categories        []string // Entry must carry all of them
	OnlyMods          bool     // Exclude entries in the modpacks category
	OnlyModpacks      bool     // Keep only entries in the modpacks category
}

// Query returns one page of the filtered and sorted entries of a catalog.
// A page past the end is an empty slice.
func Query(src Source, id catalog.ID, opts Options) []catalog.Entry {
	entries := filter(src.Get(id), opts)
	sortEntries(entries, opts)
	return paginate(entries, opts.Page, opts.PageSize)
}

// Count returns how many entries match the filters of opts.
func Count(src Source, id catalog.ID, opts Options) int {
	return len(filter(src.Get(id), opts))
}

func filter(entries []catalog.Entry, opts Options) []catalog.Entry {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(opts.Search))

	out := entries[:0:0]
	for _, e := range entries {
		if opts.ExcludeNSFW && e.HasNSFWContent {
			continue
		}
		if opts.ExcludeDeprecated && e.IsDeprecated {
			continue
		}
		isPack := e.HasCategory(constants.ModpacksCategory)
		if opts.OnlyMods && isPack {
			continue
		}
		if opts.OnlyModpacks && !isPack {
			continue
		}
		if !hasAll(e, opts.Categories) {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(e.Name), needle) &&
			!strings.Contains(fold.String(e.FullName), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasAll(e catalog.Entry, categories []string) bool {
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" && !e.HasCategory(c) {
			return false
		}
	}
	return true
}

func sortEntries(entries []catalog.Entry, opts Options) {
	field, ok := ParseSort(opts.Sort)
	if !ok {
		return
	}

	var cmp func(a, b catalog.Entry) int
	desc := true
	switch field {
	case SortDownloads:
		cmp = func(a, b catalog.Entry) int { return compare(a.Downloads(), b.Downloads()) }
	case SortRating:
		cmp = func(a, b catalog.Entry) int { return compare(a.RatingScore, b.RatingScore) }
	case SortUpdated:
		cmp = func(a, b catalog.Entry) int { return strings.Compare(a.DateUpdated, b.DateUpdated) }
	case SortCreated:
		cmp = func(a, b catalog.Entry) int { return strings.Compare(a.DateCreated, b.DateCreated) }
	case SortName:
		fold := cases.Fold()
		cmp = func(a, b catalog.Entry) int { return strings.Compare(fold.String(a.Name), fold.String(b.Name)) }
		desc = false
	default:
		return
	}

	switch opts.Direction {
	case Ascending:
		desc = false
	case Descending:
		desc = true
	}

	slices.SortStableFunc(entries, func(a, b catalog.Entry) int {
		if desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
}

func compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func paginate(entries []catalog.Entry, page, size int) []catalog.Entry {
	if size <= 0 {
		return entries
	}
	page = max(page, 0)
	start := page * size
	if start >= len(entries) {
		return []catalog.Entry{}
	}
	return entries[start:min(start+size, len(entries))]
}
