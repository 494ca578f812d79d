// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Filegate packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. The
// notifier and subscribe-stream tests use them to assert on event
// delivery without risking a hung test run.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Filegate-internal dependencies.
package testutil
