package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// ChunkRef locates one compressed fragment of a catalog. Hash is the
// content hash embedded in the locator and is used as the cache key, so
// identical chunks are shared across catalogs.
type ChunkRef struct {
	URL  string `json:"url" yaml:"url"`
	Hash string `json:"hash" yaml:"hash"`
}

// NewChunkRef builds a reference from a locator, extracting its hash.
func NewChunkRef(locator string) ChunkRef {
	return ChunkRef{URL: locator, Hash: HashFromLocator(locator)}
}

// HashFromLocator returns the last path segment of the locator with every
// extension removed. Locators without a usable segment hash to the SHA-256
// of the locator itself.
func HashFromLocator(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "/" || !isSafeKey(base) {
		sum := sha256.Sum256([]byte(locator))
		return hex.EncodeToString(sum[:])
	}
	return base
}

// isSafeKey rejects segments that cannot be used as a file name.
func isSafeKey(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
