package catalog

import (
	"regexp"
	"strings"
)

// ID identifies a catalog, usually a community slug such as "lethal-company".
type ID string

// String returns the catalog ID as a string.
func (id ID) String() string {
	return string(id)
}

// Entry is one package of a catalog. Entries are immutable after parse.
type Entry struct {
	Name           string    `json:"name" yaml:"name"`                       // Package name without owner
	FullName       string    `json:"full_name" yaml:"full_name"`             // Qualified name, "Owner-Name"
	Owner          string    `json:"owner" yaml:"owner"`                     // Publishing namespace
	UUID           string    `json:"uuid4,omitempty" yaml:"uuid4,omitempty"` // Repository identifier
	PackageURL     string    `json:"package_url,omitempty" yaml:"package_url,omitempty"`
	DateCreated    string    `json:"date_created,omitempty" yaml:"date_created,omitempty"`
	DateUpdated    string    `json:"date_updated,omitempty" yaml:"date_updated,omitempty"` // ISO timestamp, compared as a string
	RatingScore    int64     `json:"rating_score" yaml:"rating_score"`
	IsPinned       bool      `json:"is_pinned" yaml:"is_pinned"`
	IsDeprecated   bool      `json:"is_deprecated" yaml:"is_deprecated"`
	HasNSFWContent bool      `json:"has_nsfw_content" yaml:"has_nsfw_content"`
	Categories     []string  `json:"categories" yaml:"categories"`
	Versions       []Version `json:"versions" yaml:"versions"` // Newest first
}

// Version is one published version of a package.
type Version struct {
	Name          string   `json:"name" yaml:"name"`
	FullName      string   `json:"full_name" yaml:"full_name"` // "Owner-Name-X.Y.Z"
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Icon          string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	VersionNumber string   `json:"version_number" yaml:"version_number"`
	Dependencies  []string `json:"dependencies" yaml:"dependencies"`
	DownloadURL   string   `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	Downloads     int64    `json:"downloads" yaml:"downloads"`
	DateCreated   string   `json:"date_created,omitempty" yaml:"date_created,omitempty"`
	WebsiteURL    string   `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	IsActive      bool     `json:"is_active" yaml:"is_active"`
	UUID          string   `json:"uuid4,omitempty" yaml:"uuid4,omitempty"`
	FileSize      int64    `json:"file_size" yaml:"file_size"`
}

// Downloads returns the total download count across all versions.
func (e Entry) Downloads() int64 {
	var total int64
	for _, v := range e.Versions {
		total += v.Downloads
	}
	return total
}

// Latest returns the newest version, if any.
func (e Entry) Latest() (Version, bool) {
	if len(e.Versions) == 0 {
		return Version{}, false
	}
	return e.Versions[0], true
}

// HasCategory reports whether the entry carries the category, ignoring case.
func (e Entry) HasCategory(category string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

var versionSuffix = regexp.MustCompile(`^(.*)-(\d+\.\d+\.\d+)$`)

// CleanName strips a trailing "-X.Y.Z" version from a package identifier,
// so "Owner-Mod-1.2.3" becomes "Owner-Mod".
func CleanName(name string) string {
	if m := versionSuffix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
