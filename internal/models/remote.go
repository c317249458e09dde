// Package models defines the records exchanged between the fetcher, the
// reconciler and the local roster cache.
package models

import (
	"encoding/json"
	"strings"
)

// RemoteRecord is one tagged contact as returned by the remote system.
// It is built fresh on every fetch and discarded after one reconciliation.
type RemoteRecord struct {
	// RemoteID is the identifier assigned by the remote system.
	RemoteID int64

	// PrimaryEmail is the first email address on the contact, possibly empty.
	PrimaryEmail string

	// RawPayload is the complete detail response, preserved verbatim.
	RawPayload json.RawMessage
}

// LookupKey returns the local natural key for the record, or "" when the
// record has no email and therefore cannot be stored.
func (r RemoteRecord) LookupKey() string {
	return LookupKey(r.PrimaryEmail)
}

// LookupKey normalizes an email address into a lookup key.
func LookupKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
