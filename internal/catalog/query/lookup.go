package query

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/modsync/pkg/catalog"
)

// Lookup resolves package identifiers, with or without a "-X.Y.Z" version
// suffix, to catalog entries by case-insensitive full name. Names that match
// nothing are returned in unknown, in input order.
func Lookup(src Source, id catalog.ID, names []string) (found []catalog.Entry, unknown []string) {
	fold := cases.Fold()
	byName := make(map[string]catalog.Entry)
	for _, e := range src.Get(id) {
		key := fold.String(e.FullName)
		if _, dup := byName[key]; !dup {
			byName[key] = e
		}
	}

	for _, name := range names {
		if e, ok := byName[fold.String(catalog.CleanName(strings.TrimSpace(name)))]; ok {
			found = append(found, e)
			continue
		}
		unknown = append(unknown, name)
	}
	return found, unknown
}

// FindByName returns the first entry whose name or full name equals name,
// ignoring case.
func FindByName(src Source, id catalog.ID, name string) (catalog.Entry, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	if want == "" {
		return catalog.Entry{}, false
	}
	for _, e := range src.Get(id) {
		if fold.String(e.Name) == want || fold.String(e.FullName) == want {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

// Categories returns the distinct categories of a catalog, sorted. Spellings
// differing only in case collapse to the first one seen.
func Categories(src Source, id catalog.ID) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	var out []string
	for _, e := range src.Get(id) {
		for _, c := range e.Categories {
			key := fold.String(c)
			if c == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(fold.String(a), fold.String(b))
	})
	return out
}
