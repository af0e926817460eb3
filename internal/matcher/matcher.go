// Package matcher decides which profile mod folders a list of disabled mod
// names refers to. All modes ignore case.
package matcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentstation/modsync/pkg/errors"
)

// Mode selects how a disabled name is compared to a folder name.
type Mode string

const (
	// Substring matches when the folder name contains the disabled name.
	// A short name such as "lib" therefore also disables "LethalLib".
	Substring Mode = "substring"
	// Exact matches when the folder name equals the disabled name.
	Exact Mode = "exact"
	// Glob matches shell-style patterns (*, ?, []) against the folder name.
	Glob Mode = "glob"
)

// ParseMode resolves a mode name; the empty string selects Substring.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Substring:
		return Substring, nil
	case Exact:
		return Exact, nil
	case Glob:
		return Glob, nil
	}
	return "", errors.NewValidationError("match_mode", s, "must be one of substring, exact, glob")
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Matcher reports whether a folder name is selected.
type Matcher interface {
	Match(folder string) bool
	// Patterns returns the normalized, non-empty patterns in input order.
	Patterns() []string
}

// Set matches a folder when any of its patterns does.
type Set struct {
	mode     Mode
	patterns []string
}

// New builds a Set from disabled names. Blank names are dropped: an empty
// substring would otherwise select every folder.
func New(mode Mode, names []string) (*Set, error) {
	if mode == "" {
		mode = Substring
	}
	s := &Set{mode: mode}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if mode == Glob {
			if _, err := filepath.Match(n, ""); err != nil {
				return nil, errors.NewValidationError("disabled", n, fmt.Sprintf("invalid glob pattern: %v", err))
			}
		}
		s.patterns = append(s.patterns, n)
	}
	switch mode {
	case Substring, Exact, Glob:
	default:
		return nil, errors.NewValidationError("match_mode", string(mode), "unsupported match mode")
	}
	return s, nil
}

// MustNew is New that panics on an invalid pattern.
func MustNew(mode Mode, names ...string) *Set {
	s, err := New(mode, names)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether any pattern selects folder.
func (s *Set) Match(folder string) bool {
	folder = strings.ToLower(folder)
	for _, p := range s.patterns {
		if s.matchOne(p, folder) {
			return true
		}
	}
	return false
}

func (s *Set) matchOne(pattern, folder string) bool {
	switch s.mode {
	case Exact:
		return folder == pattern
	case Glob:
		ok, _ := filepath.Match(pattern, folder)
		return ok
	default:
		return strings.Contains(folder, pattern)
	}
}

// Patterns implements Matcher.
func (s *Set) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Mode returns the comparison mode.
func (s *Set) Mode() Mode {
	return s.mode
}

// Filter splits folders into the ones the set selects and the rest,
// keeping input order.
func (s *Set) Filter(folders []string) (matched, rest []string) {
	for _, f := range folders {
		if s.Match(f) {
			matched = append(matched, f)
		} else {
			rest = append(rest, f)
		}
	}
	return matched, rest
}
