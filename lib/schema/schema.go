// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// User is an account known to the sharing core. The core never creates
// or deletes users — account lifecycle belongs to the fronting identity
// service. Admin users bypass all grant checks on all files.
type User struct {
	// ID is the numeric account identifier.
	ID int64 `json:"id" cbor:"id"`

	// Name is the display name. Informational only; never consulted
	// by authorization decisions.
	Name string `json:"name,omitempty" cbor:"name,omitempty"`

	// Admin marks an administrator. Admins hold every capability on
	// every file regardless of stored grants.
	Admin bool `json:"admin,omitempty" cbor:"admin,omitempty"`
}

// File is the metadata record for an uploaded file. Byte storage and
// transfer are external; the core only needs identity and ownership.
// The owner holds every capability on the file regardless of stored
// grants.
type File struct {
	// ID is the numeric file identifier.
	ID int64 `json:"id" cbor:"id"`

	// OwnerID is the uploader's user ID.
	OwnerID int64 `json:"owner_id" cbor:"owner_id"`

	// Name is the uploaded file name.
	Name string `json:"name,omitempty" cbor:"name,omitempty"`

	// Size is the file size in bytes.
	Size int64 `json:"size,omitempty" cbor:"size,omitempty"`

	// CreatedAt is when the file record was created.
	CreatedAt time.Time `json:"created_at,omitempty" cbor:"created_at,omitempty"`
}

// Capabilities is the resolved or stored read/write/share tuple for one
// user on one file. Share controls whether the holder may create,
// update, or delete other users' grants on the file.
type Capabilities struct {
	Read  bool `json:"read" cbor:"read"`
	Write bool `json:"write" cbor:"write"`
	Share bool `json:"share" cbor:"share"`
}

// DefaultCapabilities returns the capability tuple applied when a file
// is shared without explicit capabilities: read-only.
func DefaultCapabilities() Capabilities {
	return Capabilities{Read: true}
}

// Capability names a single capability for access checks and wire
// requests.
type Capability string

const (
	// CapabilityRead permits downloading, previewing, and seeing the
	// file in listings.
	CapabilityRead Capability = "read"

	// CapabilityWrite permits replacing file content and metadata.
	CapabilityWrite Capability = "write"

	// CapabilityShare permits managing other users' grants on the file.
	CapabilityShare Capability = "share"
)

// Valid reports whether c is one of the three defined capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityRead, CapabilityWrite, CapabilityShare:
		return true
	}
	return false
}

// Grant is the stored record giving one user explicit capabilities on
// one file. At most one grant exists per (FileID, UserID) pair — the
// store enforces this with a uniqueness constraint and an atomic
// upsert. Grants are never stored for a file's owner, and are
// meaningless for admins: those capabilities are implied, not stored.
type Grant struct {
	// FileID and UserID identify the (file, user) pair. Both are
	// foreign keys into independently owned entity tables; deleting
	// either entity cascades to the grant.
	FileID int64 `json:"file_id" cbor:"file_id"`
	UserID int64 `json:"user_id" cbor:"user_id"`

	// Capabilities is the complete stored tuple. Mutations replace it
	// whole — there are no partial patches, so a concurrent update can
	// never clobber individual flags.
	Capabilities Capabilities `json:"capabilities" cbor:"capabilities"`

	// GrantedBy is the user ID of the actor whose mutation last wrote
	// this grant. Audit trail only; never consulted by authorization.
	GrantedBy int64 `json:"granted_by,omitempty" cbor:"granted_by,omitempty"`

	// GrantedAt is when the grant was last written.
	GrantedAt time.Time `json:"granted_at,omitempty" cbor:"granted_at,omitempty"`
}

// EventTypePermissionUpdate is the only event type the core publishes.
const EventTypePermissionUpdate = "permission_update"

// Event is the change notification fanned out to subscribers after a
// grant mutation commits. Delivery is at-most-once and best-effort;
// consumers reconcile by re-fetching rather than relying on delivery.
//
// The field names are the wire contract: "type" and "fileId". Nothing
// else is guaranteed.
type Event struct {
	Type   string `json:"type" cbor:"type"`
	FileID int64  `json:"fileId" cbor:"fileId"`
}

// PermissionUpdate builds the event published after a grant mutation
// on the given file.
func PermissionUpdate(fileID int64) Event {
	return Event{Type: EventTypePermissionUpdate, FileID: fileID}
}
