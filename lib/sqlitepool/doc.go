// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the Filegate-standard SQLite connection
// pool. The grant, file, and user repositories in lib/store are built
// on it.
//
// It wraps zombiezen.com/go/sqlite with the defaults the sharing core
// needs: WAL journal mode so authorization reads never block grant
// writes, NORMAL synchronous for process-crash durability, a busy
// timeout to absorb write contention, and foreign key enforcement ON —
// grant rows reference file and user rows, and entity deletion must
// cascade to grants at the store boundary rather than being cleaned up
// by application code.
//
// Callers [Pool.Take] a connection, perform work, and [Pool.Put] it
// back. The pool is safe for concurrent use; individual connections
// are not — each goroutine holds its own connection for the duration
// of its work.
package sqlitepool
