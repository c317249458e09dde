// Package common contains shared constants and sentinel errors used across
// rostersync components.
package common

// Metadata keys persisted in the metadata side table.
const (
	// MetadataLastSync holds the completion time of the last successful cycle
	// (RFC3339Nano, UTC).
	MetadataLastSync = "last_sync"

	// MetadataLastSyncTag holds the tag id the last successful cycle ran for.
	MetadataLastSyncTag = "last_sync_tag"
)

// RequestIDHeaderName is the gRPC/HTTP metadata key carrying a request id.
const RequestIDHeaderName = "x-request-id"

// LastSyncTagHeaderName is the gRPC response header carrying the tag id of
// the last successful cycle.
const LastSyncTagHeaderName = "x-last-sync-tag"
