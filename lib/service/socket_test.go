// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/filegate/filegate/lib/codec"
	"github.com/filegate/filegate/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// testSocketPath returns a socket path short enough for the Unix
// socket path length limit.
func testSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "filegate-test-*")
	if err != nil {
		t.Fatalf("creating temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

// startServer runs the server in the background and waits for the
// socket file to appear.
func startServer(t *testing.T, ctx context.Context, server *SocketServer) chan error {
	t.Helper()
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(server.socketPath); err == nil {
			return serveDone
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server socket never appeared")
	return nil
}

func TestSocketServerRoundTrip(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Message string `cbor:"message"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]string{"message": request.Message}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveDone := startServer(t, ctx, server)

	client := NewServiceClient(socketPath)
	var result struct {
		Message string `cbor:"message"`
	}
	if err := client.Call(ctx, "echo", map[string]any{"message": "hello"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Message != "hello" {
		t.Errorf("echoed message = %q, want %q", result.Message, "hello")
	}

	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve return"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
}

func TestSocketServerHandlerError(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("deliberate failure")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx, server)

	err := NewServiceClient(socketPath).Call(ctx, "fail", nil, nil)
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		t.Fatalf("Call = %v, want *ServiceError", err)
	}
	if serviceError.Action != "fail" || serviceError.Message != "deliberate failure" {
		t.Errorf("ServiceError = %+v", serviceError)
	}
}

func TestSocketServerUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx, server)

	err := NewServiceClient(socketPath).Call(ctx, "nope", nil, nil)
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		t.Fatalf("Call = %v, want *ServiceError", err)
	}
}

func TestSocketServerMissingAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx, server)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	defer conn.Close()
	if err := codec.NewEncoder(conn).Encode(map[string]any{"message": "no action"}); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if response.OK {
		t.Error("response.OK = true, want false")
	}
}

func TestSocketServerDuplicateHandlerPanics(t *testing.T) {
	server := NewSocketServer("/tmp/unused.sock", testLogger())
	server.Handle("dup", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate handler")
		}
	}()
	server.HandleStream("dup", func(ctx context.Context, raw []byte, conn net.Conn) {})
}

func TestSocketServerStreamHandler(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	server.HandleStream("stream", func(ctx context.Context, raw []byte, conn net.Conn) {
		encoder := codec.NewEncoder(conn)
		for i := range 3 {
			if err := encoder.Encode(map[string]any{"sequence": i}); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startServer(t, ctx, server)

	conn, err := NewServiceClient(socketPath).OpenStream(ctx, "stream", nil)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer conn.Close()

	decoder := codec.NewDecoder(conn)
	for i := range 3 {
		var frame struct {
			Sequence int `cbor:"sequence"`
		}
		if err := decoder.Decode(&frame); err != nil {
			t.Fatalf("decoding frame %d: %v", i, err)
		}
		if frame.Sequence != i {
			t.Errorf("frame sequence = %d, want %d", frame.Sequence, i)
		}
	}
}

func TestSocketServerGracefulShutdown(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())

	handlerStarted := make(chan struct{})
	server.HandleStream("stream", func(ctx context.Context, raw []byte, conn net.Conn) {
		close(handlerStarted)
		<-ctx.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := startServer(t, ctx, server)

	conn, err := NewServiceClient(socketPath).OpenStream(ctx, "stream", nil)
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer conn.Close()

	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "stream handler start")
	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve return"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("socket file still present after shutdown: %v", err)
	}
}
