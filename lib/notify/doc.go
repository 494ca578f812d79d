// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify fans permission-change events out to subscribers.
//
// A Notifier is a registry of subscriber channels. Notify publishes a
// permission_update event for a file to every subscriber with a
// non-blocking send: a subscriber whose channel buffer is full misses
// that event, and delivery to the others is unaffected. Delivery is
// best-effort with no ordering guarantee across concurrent
// notifications; clients that need current state re-query it after any
// event.
//
// Subscribers are anonymous channels, removed by identity. The
// Notifier never closes a subscriber channel; the subscriber owns its
// channel lifecycle.
package notify
