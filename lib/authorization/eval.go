// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package authorization

import "github.com/filegate/filegate/lib/schema"

// Reason describes which rule produced an effective-capability result.
type Reason int

const (
	// ReasonNoGrant means no override applied and no grant exists; all
	// capabilities are denied.
	ReasonNoGrant Reason = iota

	// ReasonAdmin means the admin override applied.
	ReasonAdmin

	// ReasonOwner means the owner override applied.
	ReasonOwner

	// ReasonGrant means a stored grant supplied the capabilities.
	ReasonGrant
)

// String returns a human-readable rule name.
func (r Reason) String() string {
	switch r {
	case ReasonAdmin:
		return "admin override"
	case ReasonOwner:
		return "owner override"
	case ReasonGrant:
		return "stored grant"
	default:
		return "no grant"
	}
}

// Result is the outcome of capability resolution, including which rule
// fired. The trace supports the gate's debug logging and audit trails;
// callers that only need the tuple use EffectiveCapabilities.
type Result struct {
	// Capabilities is the resolved tuple.
	Capabilities schema.Capabilities

	// Reason identifies the rule that produced the tuple.
	Reason Reason

	// MatchedGrant is the grant that supplied the capabilities. Nil
	// unless Reason is ReasonGrant.
	MatchedGrant *schema.Grant
}

// Explain resolves the effective capabilities of user on file and
// reports which rule produced them. The grant parameter is the user's
// stored grant for this file, or nil if none exists; passing a grant
// for a different (file, user) pair is a caller bug and the result is
// undefined.
func Explain(user schema.User, file schema.File, grant *schema.Grant) Result {
	if user.Admin {
		return Result{
			Capabilities: schema.Capabilities{Read: true, Write: true, Share: true},
			Reason:       ReasonAdmin,
		}
	}
	if user.ID == file.OwnerID {
		return Result{
			Capabilities: schema.Capabilities{Read: true, Write: true, Share: true},
			Reason:       ReasonOwner,
		}
	}
	if grant != nil {
		return Result{
			Capabilities: grant.Capabilities,
			Reason:       ReasonGrant,
			MatchedGrant: grant,
		}
	}
	return Result{Reason: ReasonNoGrant}
}

// EffectiveCapabilities resolves the read/write/share tuple for user
// on file given the user's stored grant (nil if none). Admins and the
// file's owner hold all three capabilities regardless of any grant.
func EffectiveCapabilities(user schema.User, file schema.File, grant *schema.Grant) schema.Capabilities {
	return Explain(user, file, grant).Capabilities
}

// Has reports whether the resolved capabilities include the named
// capability. Unknown capability names are never held.
func Has(capabilities schema.Capabilities, capability schema.Capability) bool {
	switch capability {
	case schema.CapabilityRead:
		return capabilities.Read
	case schema.CapabilityWrite:
		return capabilities.Write
	case schema.CapabilityShare:
		return capabilities.Share
	}
	return false
}

// CanManageGrants reports whether user may create, update, or delete
// other users' grants on file. True for admins, the file's owner, and
// holders of a grant with the share flag set.
func CanManageGrants(user schema.User, file schema.File, grant *schema.Grant) bool {
	return EffectiveCapabilities(user, file, grant).Share
}
