package types

import (
	"time"

	"github.com/google/uuid"
)

// RunReport summarises one job invocation.
type RunReport struct {
	RunID       uuid.UUID `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	Fetched    int `json:"fetched"`    // raw listings returned by pagination
	Suppressed int `json:"suppressed"` // listings dropped by the seller filter
	Failed     int `json:"failed"`     // listings skipped on processing errors
	Qualified  int `json:"qualified"`  // notification records built
	New        int `json:"new"`        // records not present in the dedup set
	Notified   int `json:"notified"`   // per-listing messages delivered

	DedupBefore int  `json:"dedup_before"`
	DedupAfter  int  `json:"dedup_after"`
	Persisted   bool `json:"persisted"`
	DryRun      bool `json:"dry_run,omitempty"`
}

// Duration returns the wall-clock time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
