// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package sharing is the facade over the sharing core: it sequences
// the access gate, the grant repository, and the notifier into the
// operations the service surface exposes.
//
// Every grant mutation follows the same shape: authorize the actor,
// validate the target, commit the change, then notify. Notification
// is strictly after the durable commit, so a subscriber that receives
// a permission_update event and re-queries always observes the new
// state. Notification is best-effort; a failed or dropped delivery
// never rolls back the mutation.
package sharing
