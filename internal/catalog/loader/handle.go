package loader

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/modsync/pkg/catalog"
)

// Summary describes a finished catalog load.
type Summary struct {
	Catalog    catalog.ID `json:"catalog" yaml:"catalog"`
	Chunks     int        `json:"chunks" yaml:"chunks"`           // Chunks listed in the index
	Loaded     int        `json:"loaded" yaml:"loaded"`           // Chunks merged into the store
	FromCache  int        `json:"from_cache" yaml:"from_cache"`   // Loaded chunks served by the disk cache
	Failed     int        `json:"failed" yaml:"failed"`           // Chunks whose entries are missing
	Entries    int        `json:"entries" yaml:"entries"`         // Store size when the load finished
	StartedAt  utc.Time   `json:"started_at" yaml:"started_at"`   // When the index fetch began
	FinishedAt utc.Time   `json:"finished_at" yaml:"finished_at"` // When the last chunk settled
}

// Duration returns how long the whole load took.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Handle tracks the detached background part of a load. It cannot cancel
// the work; it only lets a caller observe completion.
type Handle struct {
	done    chan struct{}
	summary Summary
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// completedHandle returns a handle that is already finished.
func completedHandle(s Summary) *Handle {
	h := newHandle()
	h.finish(s)
	return h
}

func (h *Handle) finish(s Summary) {
	h.summary = s
	close(h.done)
}

func (h *Handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once every chunk has settled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until every chunk has settled and returns the summary.
func (h *Handle) Wait() Summary {
	<-h.done
	return h.summary
}

// WaitContext is Wait bounded by ctx. Giving up does not stop the load.
func (h *Handle) WaitContext(ctx context.Context) (Summary, error) {
	select {
	case <-h.done:
		return h.summary, nil
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}
