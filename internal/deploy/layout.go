package deploy

import (
	"path/filepath"

	"github.com/agentstation/modsync/pkg/constants"
)

// Layout names the mod loader paths inside a profile or game directory.
type Layout struct {
	RuntimeDir   string   `mapstructure:"runtime_dir" yaml:"runtime_dir"`
	PluginsDir   string   `mapstructure:"plugins_dir" yaml:"plugins_dir"` // Relative to RuntimeDir
	LoaderMarker string   `mapstructure:"loader_marker" yaml:"loader_marker"`
	RootFiles    []string `mapstructure:"root_files" yaml:"root_files"`
}

// DefaultLayout returns the BepInEx layout.
func DefaultLayout() Layout {
	return Layout{
		RuntimeDir:   constants.RuntimeDir,
		PluginsDir:   constants.PluginsDir,
		LoaderMarker: constants.LoaderMarker,
		RootFiles:    append([]string(nil), constants.DefaultRootFiles...),
	}
}

// withDefaults fills empty fields from DefaultLayout.
func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.RuntimeDir == "" {
		l.RuntimeDir = d.RuntimeDir
	}
	if l.PluginsDir == "" {
		l.PluginsDir = d.PluginsDir
	}
	if l.LoaderMarker == "" {
		l.LoaderMarker = d.LoaderMarker
	}
	if l.RootFiles == nil {
		l.RootFiles = d.RootFiles
	}
	return l
}

// Runtime returns the runtime directory under root.
func (l Layout) Runtime(root string) string {
	return filepath.Join(root, l.RuntimeDir)
}

// PluginArea returns the plugin directory under root.
func (l Layout) PluginArea(root string) string {
	return filepath.Join(root, l.RuntimeDir, l.PluginsDir)
}
