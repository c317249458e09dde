// Package common defines shared constants and sentinel errors used across
// the fetcher, store, runner and trigger layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Fetch-level errors. A failed listing call aborts the whole cycle.
	ErrFetchFailed = errors.New("fetch failed")

	// Trigger-level errors.
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrInvalidTag     = errors.New("invalid tag id")

	// Transport errors seen by the remote trigger client.
	ErrUnavailable = errors.New("server unavailable")
)
