// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// filegate-service is the file-sharing authorization daemon. It owns
// the grant store and answers capability questions, grant mutations,
// and permission-change subscriptions over a CBOR Unix-socket
// protocol.
//
// Request-response actions:
//
//	status         — liveness and operational counters (no actor)
//	authorize_read — may actor read a file
//	list_files     — files readable by the actor
//	grant          — create or replace a grant
//	revoke         — remove a grant
//	grants         — list grants on a file (managers only)
//
// Stream actions:
//
//	subscribe — permission_update events plus periodic heartbeats
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/filegate/filegate/lib/clock"
	"github.com/filegate/filegate/lib/config"
	"github.com/filegate/filegate/lib/notify"
	"github.com/filegate/filegate/lib/process"
	"github.com/filegate/filegate/lib/service"
	"github.com/filegate/filegate/lib/sharing"
	"github.com/filegate/filegate/lib/store"
	"github.com/filegate/filegate/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("filegate-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $FILEGATE_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("filegate-service")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	systemClock := clock.Real()

	st, err := store.Open(store.Config{
		Path:     cfg.Database.Path,
		PoolSize: cfg.Database.PoolSize,
		Clock:    systemClock,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	notifier := notify.New(logger)
	core, err := sharing.New(sharing.Config{
		Files:    st,
		Users:    st,
		Grants:   st,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	gateService := &gateService{
		sharing:           core,
		users:             st,
		clock:             systemClock,
		logger:            logger,
		startedAt:         systemClock.Now(),
		subscriberBuffer:  cfg.Notify.SubscriberBuffer,
		heartbeatInterval: cfg.Notify.HeartbeatInterval.Std(),
	}

	socketServer := service.NewSocketServer(cfg.Socket.Path, logger)
	gateService.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	logger.Info("filegate service running",
		"socket", cfg.Socket.Path,
		"database", cfg.Database.Path,
		"environment", string(cfg.Environment),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections,
	// including open subscribe streams.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	return nil
}

// gateService is the core state for the sharing daemon: the sharing
// facade plus operational counters for the status action.
//
// Counters use atomics for lock-free reads from the status handler
// while request handlers write concurrently.
type gateService struct {
	sharing *sharing.Service
	users   store.Users
	clock   clock.Clock
	logger  *slog.Logger

	startedAt         time.Time
	subscriberBuffer  int
	heartbeatInterval time.Duration

	checksServed  atomic.Uint64
	grantsWritten atomic.Uint64
	grantsRevoked atomic.Uint64
	subscribers   atomic.Int64
}

// statusResponse is the CBOR response for the "status" action. It
// carries only aggregate operational counters, no file or user
// identifiers.
type statusResponse struct {
	ChecksServed  uint64  `cbor:"checks_served"`
	GrantsWritten uint64  `cbor:"grants_written"`
	GrantsRevoked uint64  `cbor:"grants_revoked"`
	Subscribers   int64   `cbor:"subscribers"`
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

// registerActions registers the daemon's socket actions on the server.
func (s *gateService) registerActions(server *service.SocketServer) {
	server.Handle("status", s.handleStatus)
	server.Handle("authorize_read", s.handleAuthorizeRead)
	server.Handle("list_files", s.handleListFiles)
	server.Handle("grant", s.handleGrant)
	server.Handle("revoke", s.handleRevoke)
	server.Handle("grants", s.handleGrants)
	server.HandleStream("subscribe", s.handleSubscribe)
}

// handleStatus is the only action without an actor: a liveness and
// stats endpoint.
func (s *gateService) handleStatus(_ context.Context, _ []byte) (any, error) {
	return statusResponse{
		ChecksServed:  s.checksServed.Load(),
		GrantsWritten: s.grantsWritten.Load(),
		GrantsRevoked: s.grantsRevoked.Load(),
		Subscribers:   s.subscribers.Load(),
		UptimeSeconds: s.clock.Now().Sub(s.startedAt).Seconds(),
	}, nil
}
