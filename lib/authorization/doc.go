// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package authorization resolves effective capabilities for a user on
// a file. It is pure computation: given the requesting user, the
// target file, and the user's stored grant for that file (if any), it
// returns the effective read/write/share tuple and whether the user
// may manage other users' grants.
//
// Resolution order:
//
//  1. Admin override — an admin holds every capability on every file.
//  2. Owner override — the uploader holds every capability on their
//     own file.
//  3. Stored grant — its three flags apply verbatim.
//  4. Otherwise — no capabilities.
//
// The package performs no I/O and keeps no state; callers (lib/access)
// load the entities and pass them in. This makes the full decision
// table exhaustively testable without any store.
package authorization
