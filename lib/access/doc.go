// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package access is the enforcement point for file-scoped operations.
// Every download, preview, listing, and grant-management call passes
// through the [Gate], which loads the target file and the caller's
// grant, resolves effective capabilities via lib/authorization, and
// rejects unauthorized calls.
//
// The package also defines the error taxonomy that crosses the core
// boundary: [KindNotFound], [KindDenied], [KindConflict], and
// [KindValidation]. Repository-level errors are translated into these
// kinds before reaching callers — callers never observe
// storage-specific error shapes. Use [IsKind] (or errors.As with
// [*Error]) to classify.
//
// Listing is filter-not-reject: [Gate.FilterReadable] silently omits
// inaccessible files instead of failing. Every other operation rejects
// outright.
package access
