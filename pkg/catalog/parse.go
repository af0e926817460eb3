package catalog

import (
	"encoding/json"
	"strconv"

	"github.com/agentstation/modsync/pkg/errors"
)

// ParseEntries decodes a JSON array of loosely typed package records.
// Only a document that is not a JSON array is an error; individual fields
// default when missing or of the wrong type. Non-object elements are skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapFormat("json", "package list", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		entries = append(entries, entryFromMap(obj))
	}
	return entries, nil
}

func entryFromMap(m map[string]any) Entry {
	e := Entry{
		Name:           str(m, "name"),
		FullName:       str(m, "full_name"),
		Owner:          str(m, "owner"),
		UUID:           str(m, "uuid4"),
		PackageURL:     str(m, "package_url"),
		DateCreated:    str(m, "date_created"),
		DateUpdated:    str(m, "date_updated"),
		RatingScore:    num(m, "rating_score"),
		IsPinned:       boolean(m, "is_pinned"),
		IsDeprecated:   boolean(m, "is_deprecated"),
		HasNSFWContent: boolean(m, "has_nsfw_content"),
		Categories:     strs(m, "categories"),
	}

	if list, ok := m["versions"].([]any); ok {
		e.Versions = make([]Version, 0, len(list))
		for _, item := range list {
			if vm, ok := item.(map[string]any); ok {
				e.Versions = append(e.Versions, versionFromMap(vm))
			}
		}
	}
	return e
}

func versionFromMap(m map[string]any) Version {
	return Version{
		Name:          str(m, "name"),
		FullName:      str(m, "full_name"),
		Description:   str(m, "description"),
		Icon:          str(m, "icon"),
		VersionNumber: str(m, "version_number"),
		Dependencies:  strs(m, "dependencies"),
		DownloadURL:   str(m, "download_url"),
		Downloads:     num(m, "downloads"),
		DateCreated:   str(m, "date_created"),
		WebsiteURL:    str(m, "website_url"),
		IsActive:      boolean(m, "is_active"),
		UUID:          str(m, "uuid4"),
		FileSize:      num(m, "file_size"),
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case string:
		// Some mirrors serialize counters as strings.
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func strs(m map[string]any, key string) []string {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
