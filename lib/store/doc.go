// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package store defines the repository interfaces the sharing core
// depends on ([Files], [Users], [Grants]) and provides the SQLite
// implementation ([Store]).
//
// The interfaces are deliberately narrow: the core treats a successful
// return from any mutation as a durable commit, and pushes all
// atomicity to the store boundary. The one-grant-per-pair invariant is
// enforced here — a UNIQUE(file_id, user_id) constraint combined with
// a single-statement INSERT ... ON CONFLICT DO UPDATE — never by
// application-level locking above it.
//
// Entity lifecycle (creating and deleting files and users) belongs to
// external collaborators; [Store.PutFile], [Store.PutUser],
// [Store.DeleteFile], and [Store.DeleteUser] exist for them and for
// tests. Deleting an entity cascades to its grants inside SQLite via
// ON DELETE CASCADE, so a revoked user or removed file can never leave
// orphaned permission rows behind.
package store
