package deploy

import (
	"github.com/agentstation/utc"

	"github.com/agentstation/modsync/internal/mirror"
)

// State is a step of a deployment.
type State string

// Deployment steps, in order. Any step may end in StateFailed.
const (
	StateStart              State = "start"
	StateNormalizingPayload State = "normalizing_payload"
	StateCleaningOrphans    State = "cleaning_orphans"
	StateCopyingEnabled     State = "copying_enabled"
	StateSyncingRootFiles   State = "syncing_root_files"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Result records what a deployment did. On failure it holds the work done
// before the failing step.
type Result struct {
	Profile     string       `json:"profile" yaml:"profile"`
	Target      string       `json:"target" yaml:"target"`
	State       State        `json:"state" yaml:"state"`
	FailedStep  State        `json:"failed_step,omitempty" yaml:"failed_step,omitempty"`
	Payload     string       `json:"payload,omitempty" yaml:"payload,omitempty"` // Loader payload directory, if found
	PayloadSync mirror.Stats `json:"payload_sync" yaml:"payload_sync"`
	Cleanup     mirror.Stats `json:"cleanup" yaml:"cleanup"`
	Plugins     mirror.Stats `json:"plugins" yaml:"plugins"`
	RootFiles   mirror.Stats `json:"root_files" yaml:"root_files"`
	Removed     []string     `json:"removed" yaml:"removed"`   // Target plugin folders deleted
	Deployed    []string     `json:"deployed" yaml:"deployed"` // Enabled profile plugin folders
	Disabled    []string     `json:"disabled" yaml:"disabled"` // Profile plugin folders left out
	StartedAt   utc.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt  utc.Time     `json:"finished_at" yaml:"finished_at"`
}

// Total sums the stats of every step.
func (r *Result) Total() mirror.Stats {
	var s mirror.Stats
	s.Add(r.PayloadSync)
	s.Add(r.Cleanup)
	s.Add(r.Plugins)
	s.Add(r.RootFiles)
	return s
}

// ProfileMod is one plugin folder of a profile.
type ProfileMod struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}
