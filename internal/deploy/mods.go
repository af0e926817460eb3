package deploy

import (
	"path/filepath"
	"strings"

	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/pkg/errors"
)

// ListMods returns the plugin folders of a profile, sorted by name, marking
// the ones disabled matches.
func (d *Deployer) ListMods(profileDir string, disabled []string) ([]ProfileMod, error) {
	set, err := matcher.New(d.mode, disabled)
	if err != nil {
		return nil, err
	}
	names, err := d.subdirs(d.PluginAreaOf(profileDir))
	if err != nil {
		return nil, err
	}
	mods := make([]ProfileMod, 0, len(names))
	for _, n := range names {
		mods = append(mods, ProfileMod{Name: n, Enabled: !set.Match(n)})
	}
	return mods, nil
}

// RemoveMod deletes the first profile plugin folder, in name order, whose
// name contains name ignoring case. It returns the removed folder, or a
// NotFoundError when nothing matched.
func (d *Deployer) RemoveMod(profileDir, name string) (string, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", errors.NewValidationError("name", name, "mod name is required")
	}

	area := d.PluginAreaOf(profileDir)
	names, err := d.subdirs(area)
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if !strings.Contains(strings.ToLower(n), needle) {
			continue
		}
		p := filepath.Join(area, n)
		if err := d.fs.RemoveAll(p); err != nil {
			return "", errors.WrapFS("remove", p, err)
		}
		return n, nil
	}
	return "", errors.NewNotFoundError("mod", name)
}
