// Package deploy synchronizes a mod profile into a game directory.
//
// A deployment runs four steps in order: it normalizes the mod loader
// payload inside the profile, removes target plugin folders that are
// disabled or no longer in the profile, mirrors the enabled plugin folders
// and the rest of the runtime directory, and finally overwrites the loader
// files at the game root. Nothing is rolled back on failure; running the
// deployment again converges.
package deploy

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/internal/mirror"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

// Deployer runs deployments on a filesystem. It is not safe to run two
// deployments to the same target at once.
type Deployer struct {
	fs     afero.Fs
	layout Layout
	mode   matcher.Mode
	prune  bool
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithLayout overrides the loader layout. Empty fields keep their defaults.
func WithLayout(l Layout) Option {
	return func(d *Deployer) {
		d.layout = l.withDefaults()
	}
}

// WithMatchMode selects how disabled names are compared to folder names.
func WithMatchMode(m matcher.Mode) Option {
	return func(d *Deployer) {
		d.mode = m
	}
}

// WithPrune makes each deployed plugin folder an exact copy of the profile
// folder, deleting target files the profile folder no longer has.
func WithPrune(prune bool) Option {
	return func(d *Deployer) {
		d.prune = prune
	}
}

// New creates a Deployer. A nil fs uses the OS filesystem.
func New(afs afero.Fs, opts ...Option) *Deployer {
	if afs == nil {
		afs = afero.NewOsFs()
	}
	d := &Deployer{fs: afs, layout: DefaultLayout(), mode: matcher.Substring}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Layout returns the layout in use.
func (d *Deployer) Layout() Layout {
	return d.layout
}

// run carries the state of one deployment.
type run struct {
	*Deployer
	ctx      context.Context
	log      *zerolog.Logger
	disabled *matcher.Set
	profile  string
	target   string
	result   *Result
}

// Deploy synchronizes profileDir into targetDir, leaving out plugin folders
// matched by disabled. The returned Result is non-nil whenever the
// arguments are valid, including on failure.
func (d *Deployer) Deploy(ctx context.Context, profileDir, targetDir string, disabled []string) (*Result, error) {
	if profileDir == "" {
		return nil, errors.NewValidationError("profile", profileDir, "profile directory is required")
	}
	if targetDir == "" {
		return nil, errors.NewValidationError("target", targetDir, "target directory is required")
	}
	if filepath.Clean(profileDir) == filepath.Clean(targetDir) {
		return nil, errors.NewValidationError("target", targetDir, "target must differ from the profile")
	}
	set, err := matcher.New(d.mode, disabled)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithTarget(logging.WithProfile(ctx, profileDir), targetDir)
	r := &run{
		Deployer: d,
		ctx:      ctx,
		log:      logging.FromContext(ctx),
		disabled: set,
		profile:  profileDir,
		target:   targetDir,
		result: &Result{
			Profile:   profileDir,
			Target:    targetDir,
			State:     StateStart,
			StartedAt: utc.Now(),
		},
	}
	return r.result, r.execute()
}

func (r *run) execute() error {
	steps := []struct {
		state State
		fn    func() error
	}{
		{StateStart, r.checkDirs},
		{StateNormalizingPayload, r.normalizePayload},
		{StateCleaningOrphans, r.cleanOrphans},
		{StateCopyingEnabled, r.copyEnabled},
		{StateSyncingRootFiles, r.syncRootFiles},
	}

	for _, step := range steps {
		r.result.State = step.state
		if err := r.ctx.Err(); err != nil {
			return r.fail(step.state, err)
		}
		r.log.Debug().Str("step", step.state.String()).Msg("Deployment step")
		if err := step.fn(); err != nil {
			return r.fail(step.state, err)
		}
	}

	r.result.State = StateDone
	r.result.FinishedAt = utc.Now()
	total := r.result.Total()
	r.log.Info().
		Int("deployed", len(r.result.Deployed)).
		Int("removed", len(r.result.Removed)).
		Int("files_copied", total.FilesCopied).
		Int64("bytes_copied", total.BytesCopied).
		Msg("Deployment finished")
	return nil
}

func (r *run) fail(step State, err error) error {
	r.result.State = StateFailed
	r.result.FailedStep = step
	r.result.FinishedAt = utc.Now()
	r.log.Error().Err(err).Str("step", step.String()).Msg("Deployment failed")
	return errors.WrapDeploy(step.String(), r.target, err)
}

// checkDirs requires an existing profile and creates the target.
func (r *run) checkDirs() error {
	info, err := r.fs.Stat(r.profile)
	if err != nil {
		return errors.WrapFS("stat", r.profile, err)
	}
	if !info.IsDir() {
		return errors.WrapFS("stat", r.profile, errors.New("not a directory"))
	}
	if r.isDir(r.target) {
		return nil
	}
	if err := r.fs.MkdirAll(r.target, constants.DirPermissions); err != nil {
		return errors.WrapFS("mkdir", r.target, err)
	}
	return nil
}

// normalizePayload finds the loader payload inside the profile's plugin
// area and spreads it: its top-level files go to the profile root when
// missing there, its runtime subtree merges into the profile runtime dir.
func (r *run) normalizePayload() error {
	payload, err := r.findPayload(r.PluginAreaOf(r.profile))
	if err != nil || payload == "" {
		return err
	}
	r.result.Payload = payload
	r.log.Info().Str("payload", payload).Msg("Found loader payload")

	rootFiles, err := mirror.Mirror(r.ctx, r.fs, payload, r.profile, mirror.Options{
		SkipExisting: true,
		Skip: func(_ string, info fs.FileInfo) bool {
			return info.IsDir()
		},
	})
	if err != nil {
		return err
	}
	r.result.PayloadSync.Add(rootFiles)

	runtime := filepath.Join(payload, r.layout.RuntimeDir)
	if !r.isDir(runtime) {
		return nil
	}
	merged, err := mirror.Mirror(r.ctx, r.fs, runtime, r.layout.Runtime(r.profile), mirror.Options{})
	if err != nil {
		return err
	}
	r.result.PayloadSync.Add(merged)
	return nil
}

// findPayload searches breadth-first, up to PayloadSearchDepth levels below
// root, for a directory directly holding the loader marker.
func (r *run) findPayload(root string) (string, error) {
	level := []string{root}
	for depth := 1; depth <= constants.PayloadSearchDepth && len(level) > 0; depth++ {
		var next []string
		for _, dir := range level {
			children, err := r.subdirs(dir)
			if err != nil {
				return "", err
			}
			for _, name := range children {
				p := filepath.Join(dir, name)
				if r.isFile(filepath.Join(p, r.layout.LoaderMarker)) {
					return p, nil
				}
				next = append(next, p)
			}
		}
		level = next
	}
	return "", nil
}

// cleanOrphans deletes every target plugin folder that is disabled or not
// an enabled profile folder.
func (r *run) cleanOrphans() error {
	profileMods, err := r.subdirs(r.PluginAreaOf(r.profile))
	if err != nil {
		return err
	}
	enabled, disabled := r.partition(profileMods)
	r.result.Deployed = enabled
	r.result.Disabled = disabled

	area := r.PluginAreaOf(r.target)
	if !r.isDir(area) {
		if err := r.fs.MkdirAll(area, constants.DirPermissions); err != nil {
			return errors.WrapFS("mkdir", area, err)
		}
		r.result.Cleanup.DirsCreated++
	}

	targetMods, err := r.subdirs(area)
	if err != nil {
		return err
	}
	for _, name := range targetMods {
		if slices.Contains(enabled, name) && !r.disabled.Match(name) {
			continue
		}
		p := filepath.Join(area, name)
		if err := r.fs.RemoveAll(p); err != nil {
			return errors.WrapFS("remove", p, err)
		}
		r.result.Cleanup.Removed++
		r.result.Removed = append(r.result.Removed, name)
		r.log.Debug().Str("mod", name).Msg("Removed plugin folder")
	}
	return nil
}

// copyEnabled mirrors each enabled plugin folder, the loose files at the
// top of the plugin area, and then the runtime directory without its plugin
// area.
func (r *run) copyEnabled() error {
	src, dst := r.PluginAreaOf(r.profile), r.PluginAreaOf(r.target)
	for _, name := range r.result.Deployed {
		stats, err := mirror.Mirror(r.ctx, r.fs, filepath.Join(src, name), filepath.Join(dst, name), mirror.Options{Prune: r.prune})
		r.result.Plugins.Add(stats)
		if err != nil {
			return err
		}
	}

	if r.isDir(src) {
		stats, err := mirror.Mirror(r.ctx, r.fs, src, dst, mirror.Options{
			Skip: func(_ string, info fs.FileInfo) bool { return info.IsDir() },
		})
		r.result.Plugins.Add(stats)
		if err != nil {
			return err
		}
	}

	runtime := r.layout.Runtime(r.profile)
	if !r.isDir(runtime) {
		return nil
	}
	plugins := filepath.Clean(r.layout.PluginsDir)
	stats, err := mirror.Mirror(r.ctx, r.fs, runtime, r.layout.Runtime(r.target), mirror.Options{
		Skip: func(rel string, info fs.FileInfo) bool {
			return info.IsDir() && rel == plugins
		},
	})
	r.result.Plugins.Add(stats)
	return err
}

// syncRootFiles overwrites the configured loader files at the target root.
// Contents are compared, so a same-size edit is still copied while an
// identical file is left alone.
func (r *run) syncRootFiles() error {
	for _, name := range r.layout.RootFiles {
		src := filepath.Join(r.profile, name)
		if !r.isFile(src) {
			continue
		}
		stats, err := mirror.File(r.ctx, r.fs, src, filepath.Join(r.target, name), mirror.Options{CompareContent: true})
		r.result.RootFiles.Add(stats)
		if err != nil {
			return err
		}
	}
	return nil
}

// partition splits profile folders into enabled and disabled.
func (r *run) partition(folders []string) (enabled, disabled []string) {
	disabled, enabled = r.disabled.Filter(folders)
	return enabled, disabled
}

// PluginAreaOf returns the plugin directory under root.
func (d *Deployer) PluginAreaOf(root string) string {
	return d.layout.PluginArea(root)
}

// subdirs returns the sorted directory names in dir; a missing dir has none.
func (d *Deployer) subdirs(dir string) ([]string, error) {
	infos, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapFS("read", dir, err)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (d *Deployer) isDir(p string) bool {
	info, err := d.fs.Stat(p)
	return err == nil && info.IsDir()
}

func (d *Deployer) isFile(p string) bool {
	info, err := d.fs.Stat(p)
	return err == nil && !info.IsDir()
}
