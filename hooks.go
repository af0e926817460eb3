package modsync

import (
	"sync"

	"github.com/agentstation/modsync/pkg/catalog"
)

// Hook function types for catalog and deployment events
type (
	// EntriesAppendedHook is called each time a chunk's entries land in the
	// in-memory store. It runs on a loader goroutine.
	EntriesAppendedHook func(id catalog.ID, appended, total int)

	// DeployedHook is called after every deployment, successful or not.
	DeployedHook func(result *DeployResult, err error)
)

// hooks manages event callbacks
type hooks struct {
	mu                sync.RWMutex
	onEntriesAppended []EntriesAppendedHook
	onDeployed        []DeployedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnEntriesAppended registers a callback for appended entries
func (h *hooks) OnEntriesAppended(fn EntriesAppendedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntriesAppended = append(h.onEntriesAppended, fn)
}

// OnDeployed registers a callback for finished deployments
func (h *hooks) OnDeployed(fn DeployedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDeployed = append(h.onDeployed, fn)
}

func (h *hooks) triggerEntriesAppended(id catalog.ID, appended, total int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEntriesAppended {
		fn(id, appended, total)
	}
}

func (h *hooks) triggerDeployed(result *DeployResult, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDeployed {
		fn(result, err)
	}
}
