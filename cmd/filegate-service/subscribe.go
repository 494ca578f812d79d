// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/filegate/filegate/lib/codec"
	"github.com/filegate/filegate/lib/schema"
)

// streamAck is the first frame on a subscribe stream: it tells the
// client the subscription is active (or why it is not).
type streamAck struct {
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// eventFrame is a CBOR frame sent to a subscribe client. The Type
// field distinguishes permission events from heartbeat keepalives.
//
// Wire protocol after the ack:
//
//	Server → Client: eventFrame{Type: "event", Event: {...}}
//	Server → Client: eventFrame{Type: "heartbeat"}          (periodic)
type eventFrame struct {
	Type  string        `cbor:"type"`
	Event *schema.Event `cbor:"event,omitempty"`
}

// handleSubscribe is the streaming handler for the "subscribe"
// action. The client receives a readiness ack and then a stream of
// eventFrames until it disconnects or the server shuts down.
//
// Delivery is at-most-once: a client that falls more than the
// configured buffer behind loses events. An event is a cue to
// re-query, not a state carrier, so a lost event is repaired by the
// re-query triggered by the next one.
func (s *gateService) handleSubscribe(ctx context.Context, raw []byte, conn net.Conn) {
	encoder := codec.NewEncoder(conn)

	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		encoder.Encode(streamAck{Error: err.Error()})
		return
	}

	// Register BEFORE sending the readiness ack. By the time the
	// client sees the ack, the channel is already receiving events
	// from any concurrent grant mutations, so nothing is missed in
	// between.
	events := make(chan schema.Event, s.subscriberBuffer)
	s.sharing.Subscribe(events)
	s.subscribers.Add(1)

	defer func() {
		s.sharing.Unsubscribe(events)
		s.subscribers.Add(-1)
		s.logger.Info("subscribe stream ended", "actor_id", actor.ID)
	}()

	if err := encoder.Encode(streamAck{OK: true}); err != nil {
		s.logger.Debug("subscribe: failed to write ready signal",
			"actor_id", actor.ID,
			"error", err,
		)
		return
	}

	s.logger.Info("subscribe stream started", "actor_id", actor.ID)

	// Close the connection on context cancellation to unblock the
	// reader goroutine's blocking decode.
	handlerDone := make(chan struct{})
	defer close(handlerDone)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-handlerDone:
		}
	}()

	// The client sends nothing after the request; the reader exists
	// to detect disconnection.
	readerDone := make(chan error, 1)
	go func() {
		readerDone <- awaitDisconnect(conn)
	}()

	heartbeatTicker := s.clock.NewTicker(s.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case event := <-events:
			if err := encoder.Encode(eventFrame{Type: "event", Event: &event}); err != nil {
				s.logger.Debug("subscribe: failed to write event",
					"actor_id", actor.ID,
					"error", err,
				)
				return
			}

		case <-heartbeatTicker.C:
			if err := encoder.Encode(eventFrame{Type: "heartbeat"}); err != nil {
				s.logger.Debug("subscribe: failed to write heartbeat",
					"actor_id", actor.ID,
					"error", err,
				)
				return
			}

		case err := <-readerDone:
			if err != nil && ctx.Err() == nil {
				s.logger.Debug("subscribe: client read error",
					"actor_id", actor.ID,
					"error", err,
				)
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// awaitDisconnect blocks until the client closes its side of the
// connection. Returns nil for a clean close (EOF or closed socket);
// returns the error for anything else, including unexpected data
// frames from the client.
func awaitDisconnect(conn net.Conn) error {
	decoder := codec.NewDecoder(conn)
	for {
		var discard codec.RawMessage
		if err := decoder.Decode(&discard); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if opError := (*net.OpError)(nil); errors.As(err, &opError) && opError.Err.Error() == "use of closed network connection" {
				return nil
			}
			return err
		}
	}
}
