// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that
// heartbeat and timestamp behavior is deterministic in tests.
//
// Production code accepts a Clock instead of calling time.Now,
// time.After, or time.NewTicker directly. Real() provides standard
// library behavior; Fake() provides a clock that advances only when
// Advance is called. The subscribe stream's heartbeat ticker and the
// grant repository's GrantedAt timestamps both run on an injected
// Clock.
package clock
