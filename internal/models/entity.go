package models

import (
	"encoding/json"
	"time"
)

// LocalEntity is one row of the local roster cache.
type LocalEntity struct {
	// LocalID is the surrogate key assigned by the store.
	LocalID int64

	// LookupKey is unique across rows and derived from the contact email.
	LookupKey string

	// RemoteID correlates the row with RemoteRecord.RemoteID. Nil only for
	// rows written outside the sync path.
	RemoteID *int64

	// Payload is the serialized raw payload, opaque to the store.
	Payload json.RawMessage

	// UpdatedAt is set by the store on every write.
	UpdatedAt time.Time
}

// HasRemoteID reports whether the row carries a remote id.
func (e LocalEntity) HasRemoteID() bool {
	return e.RemoteID != nil
}

// RemoteIDOrZero returns the remote id or 0 when absent.
func (e LocalEntity) RemoteIDOrZero() int64 {
	if e.RemoteID == nil {
		return 0
	}
	return *e.RemoteID
}

// UpsertOutcome tells whether an upsert created or modified a row.
type UpsertOutcome int

const (
	Inserted UpsertOutcome = iota + 1
	Updated
)

func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// UpsertInput is one pending write of a reconciliation pass.
type UpsertInput struct {
	LookupKey string
	RemoteID  int64
	Payload   json.RawMessage
}

// UpsertResult is the outcome of one UpsertInput. Err is set when the write
// failed; Entity and Outcome are valid only when Err is nil.
type UpsertResult struct {
	Input   UpsertInput
	Entity  *LocalEntity
	Outcome UpsertOutcome
	Err     error
}
