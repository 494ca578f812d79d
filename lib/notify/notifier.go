// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"io"
	"log/slog"
	"sync"

	"github.com/filegate/filegate/lib/schema"
)

// Notifier is a subscriber registry with best-effort fan-out. The zero
// value is not usable; construct with New. Safe for concurrent use.
type Notifier struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers []chan<- schema.Event
}

// New creates a Notifier. If logger is nil, a no-op logger is used.
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{logger: logger}
}

// Subscribe registers a channel for event delivery. The caller
// chooses the buffer size: it is the subscriber's tolerance for
// falling behind before events are dropped. Subscribing the same
// channel twice delivers each event to it twice.
func (n *Notifier) Subscribe(events chan<- schema.Event) {
	n.mu.Lock()
	n.subscribers = append(n.subscribers, events)
	n.mu.Unlock()
}

// Unsubscribe removes a channel from the registry, matching by
// channel identity. Removing a channel that was never subscribed is a
// no-op. The channel is not closed; events already buffered in it
// remain readable.
func (n *Notifier) Unsubscribe(events chan<- schema.Event) {
	n.mu.Lock()
	for i, existing := range n.subscribers {
		if existing == events {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			break
		}
	}
	n.mu.Unlock()
}

// Notify publishes a permission_update event for the file to all
// subscribers. Non-blocking: a subscriber whose buffer is full misses
// this event, and the drop is logged, not returned. Notify never
// fails and never blocks on a slow subscriber.
func (n *Notifier) Notify(fileID int64) {
	event := schema.PermissionUpdate(fileID)

	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, subscriber := range n.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow — drop this event. Clients
			// re-query state on the next event they do receive.
			n.logger.Debug("event dropped for slow subscriber",
				"file_id", fileID)
		}
	}
}

// SubscriberCount reports the number of registered subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	count := len(n.subscribers)
	n.mu.RUnlock()
	return count
}
