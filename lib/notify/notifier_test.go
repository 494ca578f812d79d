// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/filegate/filegate/lib/schema"
	"github.com/filegate/filegate/lib/testutil"
)

func TestNotifyDeliversToAllSubscribers(t *testing.T) {
	notifier := New(nil)

	first := make(chan schema.Event, 4)
	second := make(chan schema.Event, 4)
	notifier.Subscribe(first)
	notifier.Subscribe(second)

	notifier.Notify(42)

	for _, events := range []chan schema.Event{first, second} {
		event := testutil.RequireReceive(t, events, time.Second, "permission event")
		if event.Type != schema.EventTypePermissionUpdate {
			t.Errorf("event type = %q, want %q", event.Type, schema.EventTypePermissionUpdate)
		}
		if event.FileID != 42 {
			t.Errorf("event file ID = %d, want 42", event.FileID)
		}
	}
}

func TestNotifyWithNoSubscribers(t *testing.T) {
	notifier := New(nil)
	// Must not panic or block.
	notifier.Notify(1)
}

func TestUnsubscribedChannelReceivesNothing(t *testing.T) {
	notifier := New(nil)

	kept := make(chan schema.Event, 4)
	removed := make(chan schema.Event, 4)
	notifier.Subscribe(kept)
	notifier.Subscribe(removed)
	notifier.Unsubscribe(removed)

	notifier.Notify(7)

	testutil.RequireReceive(t, kept, time.Second, "event on remaining subscriber")
	testutil.RequireNoReceive(t, removed, 50*time.Millisecond, "event on removed subscriber")
}

func TestUnsubscribeUnknownChannel(t *testing.T) {
	notifier := New(nil)
	stranger := make(chan schema.Event, 1)
	// No-op, must not panic.
	notifier.Unsubscribe(stranger)
	if count := notifier.SubscriberCount(); count != 0 {
		t.Errorf("SubscriberCount = %d, want 0", count)
	}
}

func TestSlowSubscriberDropsWithoutBlocking(t *testing.T) {
	notifier := New(nil)

	slow := make(chan schema.Event, 1)
	fast := make(chan schema.Event, 4)
	notifier.Subscribe(slow)
	notifier.Subscribe(fast)

	// Fill the slow subscriber's buffer, then notify again. The
	// second event is dropped for the slow subscriber but still
	// reaches the fast one; Notify must return promptly either way.
	notifier.Notify(1)
	notifier.Notify(2)

	first := testutil.RequireReceive(t, slow, time.Second, "buffered event")
	if first.FileID != 1 {
		t.Errorf("buffered event file ID = %d, want 1", first.FileID)
	}
	testutil.RequireNoReceive(t, slow, 50*time.Millisecond, "dropped event")

	if got := len(fast); got != 2 {
		t.Errorf("fast subscriber buffered %d events, want 2", got)
	}
}

func TestDuplicateSubscriptionDeliversTwice(t *testing.T) {
	notifier := New(nil)

	events := make(chan schema.Event, 4)
	notifier.Subscribe(events)
	notifier.Subscribe(events)

	notifier.Notify(3)
	if got := len(events); got != 2 {
		t.Errorf("duplicate subscriber buffered %d events, want 2", got)
	}

	// A single Unsubscribe removes one registration.
	notifier.Unsubscribe(events)
	if count := notifier.SubscriberCount(); count != 1 {
		t.Errorf("SubscriberCount after one Unsubscribe = %d, want 1", count)
	}
}

func TestConcurrentSubscribeAndNotify(t *testing.T) {
	notifier := New(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events := make(chan schema.Event, 16)
			notifier.Subscribe(events)
			notifier.Notify(9)
			notifier.Unsubscribe(events)
		}()
	}
	wg.Wait()

	if count := notifier.SubscriberCount(); count != 0 {
		t.Errorf("SubscriberCount after churn = %d, want 0", count)
	}
}
