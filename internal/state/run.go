// Package state persists import-run ledgers, one JSON file per run.
package state

import (
	"fmt"
	"time"
)

// SchemaVersion is stamped into every run file so future field changes can
// be migrated on load instead of silently ignored.
const SchemaVersion = 1

type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused" // reserved for manual pause, never set automatically
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunError is one entry in a run's append-only error log.
type RunError struct {
	ExternalID string    `json:"external_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Run is the ledger for one import: status, counters, pagination cursor and
// the set of external IDs already written to the destination. Counters only
// grow; saved+skipped+failed never exceeds fetched.
type Run struct {
	SchemaVersion  int       `json:"schema_version"`
	ID             string    `json:"id"`
	Status         Status    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	LastUpdateAt   time.Time `json:"last_update_at"`
	CollectionID   int64     `json:"collection_id"`
	CollectionName string    `json:"collection_name"`

	TotalFetched int `json:"total_fetched"`
	TotalSaved   int `json:"total_saved"`
	TotalSkipped int `json:"total_skipped"`
	TotalFailed  int `json:"total_failed"`

	// NextCursor is the source API pagination token; empty means "from the
	// start" on a fresh run and "no more pages" once completed.
	NextCursor string `json:"next_cursor,omitempty"`

	// ProcessedIDs holds external record IDs already present in the
	// destination, seeded from the duplicate scan and grown as the run
	// saves records. A map keeps membership checks O(1) at the tens of
	// thousands of IDs a large library produces.
	ProcessedIDs map[string]bool `json:"processed_ids"`

	Errors []RunError `json:"errors"`
}

func (r *Run) IsProcessed(externalID string) bool {
	return r.ProcessedIDs[externalID]
}

func (r *Run) MarkProcessed(externalID string) {
	if r.ProcessedIDs == nil {
		r.ProcessedIDs = make(map[string]bool)
	}
	r.ProcessedIDs[externalID] = true
}

func (r *Run) AddError(externalID, message string, at time.Time) {
	r.Errors = append(r.Errors, RunError{
		ExternalID: externalID,
		Message:    message,
		Timestamp:  at,
	})
}

// Done is the number of fetched records with a decided outcome.
func (r *Run) Done() int {
	return r.TotalSaved + r.TotalSkipped + r.TotalFailed
}

// Progress renders "{pct}% ({done}/{fetched})".
func (r *Run) Progress() string {
	pct := 0
	if r.TotalFetched > 0 {
		pct = r.Done() * 100 / r.TotalFetched
	}
	return fmt.Sprintf("%d%% (%d/%d)", pct, r.Done(), r.TotalFetched)
}

// Duration is the wall-clock span between start and last persist.
func (r *Run) Duration() time.Duration {
	if r.LastUpdateAt.Before(r.StartedAt) {
		return 0
	}
	return r.LastUpdateAt.Sub(r.StartedAt)
}
