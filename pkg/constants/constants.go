// Package constants provides shared constants used throughout the modsync codebase.
// This includes timeouts, limits, file permissions, and the well-known paths of
// a BepInEx style mod profile.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for catalog HTTP requests
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// IndexCacheTTL is how long a fetched chunk index stays memoized.
	// Matches the one hour freshness window of the package listing.
	IndexCacheTTL = 1 * time.Hour

	// IndexCacheCleanupInterval is how often expired index entries are purged
	IndexCacheCleanupInterval = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultChunkConcurrency is the number of catalog chunks loaded in parallel
	DefaultChunkConcurrency = 4

	// MaxChunkConcurrency caps the chunk worker pool
	MaxChunkConcurrency = 32

	// DefaultPageSize is the default number of entries per page for queries
	DefaultPageSize = 50

	// MaxPageSize is the maximum allowed page size for queries
	MaxPageSize = 1000

	// PayloadSearchDepth is how deep below the plugin area the loader payload is searched
	PayloadSearchDepth = 3
)

// Catalog API constants
const (
	// DefaultAPIBaseURL is the base URL of the package repository
	DefaultAPIBaseURL = "https://thunderstore.io"

	// PackageListingIndexPath is the chunk index path, formatted with the catalog id
	PackageListingIndexPath = "/c/%s/api/v1/package-listing-index/"

	// DefaultUserAgent is sent with every catalog request
	DefaultUserAgent = "modsync/0.1"

	// ModpacksCategory marks an entry as a modpack rather than a mod
	ModpacksCategory = "Modpacks"
)

// Profile layout constants
const (
	// RuntimeDir is the loader runtime directory, relative to a profile or game root
	RuntimeDir = "BepInEx"

	// PluginsDir is the plugin area, relative to the runtime directory
	PluginsDir = "plugins"

	// LoaderMarker is the file that identifies the bundled loader payload
	LoaderMarker = "winhttp.dll"

	// ChunksDir is the chunk cache directory name under the cache root
	ChunksDir = "chunks"

	// AppName is used for cache and config directory names
	AppName = "modsync"
)

// DefaultRootFiles are the loader companion files that live next to the game executable.
var DefaultRootFiles = []string{
	"winhttp.dll",
	"doorstop_config.ini",
	".doorstop_version",
	"run_bepinex.sh",
	"libdoorstop.dylib",
}
