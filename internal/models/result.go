package models

import (
	"fmt"
	"time"
)

// SyncResult summarizes one sync cycle. Only CompletedAt is persisted.
type SyncResult struct {
	RunID             string    `json:"run_id"`
	TagID             int64     `json:"tag_id"`
	Fetched           int       `json:"fetched"`
	Inserted          int       `json:"inserted"`
	Updated           int       `json:"updated"`
	OrphansRemoved    int       `json:"orphans_removed"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	Errors            []string  `json:"errors"`
	CompletedAt       time.Time `json:"completed_at"`
}

// NewSyncResult returns a zeroed result with a non-nil error list, so it
// serializes as "errors": [] rather than null.
func NewSyncResult(runID string, tagID int64) *SyncResult {
	return &SyncResult{RunID: runID, TagID: tagID, Errors: []string{}}
}

// AddError appends a formatted per-record error description.
func (r *SyncResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any per-record or fetch-level error was recorded.
func (r *SyncResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// SyncMark identifies the last successful cycle.
type SyncMark struct {
	CompletedAt time.Time `json:"last_sync"`
	TagID       int64     `json:"tag_id"`
}
