package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/internal/catalog/memory"
	"github.com/agentstation/modsync/internal/catalog/query"
	"github.com/agentstation/modsync/pkg/catalog"
)

const lc catalog.ID = "lethal-company"

func entry(name string, downloads, rating int64, updated string, categories ...string) catalog.Entry {
	return catalog.Entry{
		Name:        name,
		FullName:    "Owner-" + name,
		Owner:       "Owner",
		RatingScore: rating,
		DateUpdated: updated,
		DateCreated: updated,
		Categories:  categories,
		Versions:    []catalog.Version{{VersionNumber: "1.0.0", Downloads: downloads}},
	}
}

func newStore(t *testing.T, entries ...catalog.Entry) *memory.Store {
	t.Helper()
	s := memory.New()
	_, err := s.Append(lc, entries)
	require.NoError(t, err)
	return s
}

func names(entries []catalog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestQuerySort(t *testing.T) {
	store := newStore(t,
		entry("Beta", 5, 3, "2024-01-02", "Mods"),
		entry("alpha", 50, 1, "2024-03-01", "Mods"),
		entry("Gamma", 1, 9, "2024-02-01", "Mods"),
	)

	tests := []struct {
		name string
		opts query.Options
		want []string
	}{
		{"downloads", query.Options{Sort: "downloads"}, []string{"alpha", "Beta", "Gamma"}},
		{"downloads alias", query.Options{Sort: "most_downloaded"}, []string{"alpha", "Beta", "Gamma"}},
		{"downloads ascending", query.Options{Sort: "downloads", Direction: query.Ascending}, []string{"Gamma", "Beta", "alpha"}},
		{"rating", query.Options{Sort: "top_rated"}, []string{"Gamma", "Beta", "alpha"}},
		{"updated", query.Options{Sort: "last_updated"}, []string{"alpha", "Gamma", "Beta"}},
		{"created", query.Options{Sort: "newest"}, []string{"alpha", "Gamma", "Beta"}},
		{"name ignores case", query.Options{Sort: "alphabetical"}, []string{"alpha", "Beta", "Gamma"}},
		{"name descending", query.Options{Sort: "name", Direction: query.Descending}, []string{"Gamma", "Beta", "alpha"}},
		{"unknown keeps order", query.Options{Sort: "popularity"}, []string{"Beta", "alpha", "Gamma"}},
		{"no sort keeps order", query.Options{}, []string{"Beta", "alpha", "Gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(query.Query(store, lc, tt.opts)))
		})
	}
}

func TestQuerySortIsStable(t *testing.T) {
	store := newStore(t,
		entry("A", 10, 0, ""),
		entry("B", 20, 0, ""),
		entry("C", 10, 0, ""),
		entry("D", 10, 0, ""),
	)
	got := query.Query(store, lc, query.Options{Sort: "downloads"})
	assert.Equal(t, []string{"B", "A", "C", "D"}, names(got))
}

func TestQuerySearch(t *testing.T) {
	store := newStore(t,
		entry("MoreCompany", 0, 0, ""),
		entry("LateCompany", 0, 0, ""),
		entry("ShipLoot", 0, 0, ""),
	)

	assert.Equal(t, []string{"MoreCompany", "LateCompany"},
		names(query.Query(store, lc, query.Options{Search: "company"})))
	assert.Equal(t, []string{"ShipLoot"},
		names(query.Query(store, lc, query.Options{Search: "OWNER-SHIP"})))
	assert.Len(t, query.Query(store, lc, query.Options{Search: ""}), 3)
	assert.Empty(t, query.Query(store, lc, query.Options{Search: "nothing"}))
}

func TestQueryPagination(t *testing.T) {
	var entries []catalog.Entry
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		entries = append(entries, entry(n, 0, 0, ""))
	}
	store := newStore(t, entries...)

	t.Run("full pages in order", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, names(query.Query(store, lc, query.Options{Page: 0, PageSize: 2})))
		assert.Equal(t, []string{"c", "d"}, names(query.Query(store, lc, query.Options{Page: 1, PageSize: 2})))
		assert.Equal(t, []string{"e"}, names(query.Query(store, lc, query.Options{Page: 2, PageSize: 2})))
	})

	t.Run("past the end is empty", func(t *testing.T) {
		got := query.Query(store, lc, query.Options{Page: 3, PageSize: 2})
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Empty(t, query.Query(store, lc, query.Options{Page: 1, PageSize: 5}))
	})

	t.Run("non-positive size returns everything", func(t *testing.T) {
		assert.Len(t, query.Query(store, lc, query.Options{Page: 4}), 5)
	})

	t.Run("unknown catalog", func(t *testing.T) {
		assert.Empty(t, query.Query(store, "other", query.Options{PageSize: 2}))
	})
}

func TestQueryFilters(t *testing.T) {
	nsfw := entry("Spicy", 0, 0, "", "Cosmetics")
	nsfw.HasNSFWContent = true
	old := entry("Old", 0, 0, "", "Mods")
	old.IsDeprecated = true
	pack := entry("Pack", 0, 0, "", "Modpacks")
	store := newStore(t, nsfw, old, pack,
		entry("Suits", 0, 0, "", "Cosmetics", "Suits"),
		entry("Tool", 0, 0, "", "Mods", "Tools"),
	)

	tests := []struct {
		name string
		opts query.Options
		want []string
	}{
		{"zero options match all", query.Options{}, []string{"Spicy", "Old", "Pack", "Suits", "Tool"}},
		{"exclude nsfw", query.Options{ExcludeNSFW: true}, []string{"Old", "Pack", "Suits", "Tool"}},
		{"exclude deprecated", query.Options{ExcludeDeprecated: true}, []string{"Spicy", "Pack", "Suits", "Tool"}},
		{"exclude both", query.Options{ExcludeNSFW: true, ExcludeDeprecated: true}, []string{"Pack", "Suits", "Tool"}},
		{"category all required", query.Options{Categories: []string{"cosmetics", "SUITS"}}, []string{"Suits"}},
		{"blank category ignored", query.Options{Categories: []string{" "}}, []string{"Spicy", "Old", "Pack", "Suits", "Tool"}},
		{"only mods", query.Options{OnlyMods: true}, []string{"Spicy", "Old", "Suits", "Tool"}},
		{"only modpacks", query.Options{OnlyModpacks: true}, []string{"Pack"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(query.Query(store, lc, tt.opts)))
			assert.Equal(t, len(tt.want), query.Count(store, lc, tt.opts))
		})
	}
}

func TestParseSort(t *testing.T) {
	f, ok := query.ParseSort(" Top_Rated ")
	assert.True(t, ok)
	assert.Equal(t, query.SortRating, f)

	_, ok = query.ParseSort("random")
	assert.False(t, ok)
}

func TestQueryDoesNotMutateStore(t *testing.T) {
	store := newStore(t, entry("B", 1, 0, ""), entry("A", 2, 0, ""))
	query.Query(store, lc, query.Options{Sort: "downloads", Direction: query.Ascending})
	assert.Equal(t, []string{"B", "A"}, names(store.Get(lc)))
}
