// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package sharing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filegate/filegate/lib/access"
	"github.com/filegate/filegate/lib/notify"
	"github.com/filegate/filegate/lib/schema"
	"github.com/filegate/filegate/lib/store"
)

// Service sequences authorization, grant persistence, and change
// notification. It holds no mutable state of its own and is safe for
// concurrent use.
type Service struct {
	files    store.Files
	users    store.Users
	grants   store.Grants
	gate     *access.Gate
	notifier *notify.Notifier
	logger   *slog.Logger
}

// Config holds the collaborators for a sharing service. All fields
// are required.
type Config struct {
	Files    store.Files
	Users    store.Users
	Grants   store.Grants
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// New creates a sharing service and its access gate.
func New(cfg Config) (*Service, error) {
	if cfg.Files == nil || cfg.Users == nil || cfg.Grants == nil {
		return nil, fmt.Errorf("sharing: Files, Users, and Grants are required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("sharing: Notifier is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("sharing: Logger is required")
	}
	gate, err := access.NewGate(cfg.Files, cfg.Grants, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("sharing: %w", err)
	}
	return &Service{
		files:    cfg.Files,
		users:    cfg.Users,
		grants:   cfg.Grants,
		gate:     gate,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}, nil
}

// AuthorizeRead reports whether user may read the file. A denial is a
// normal false return, not an error; the error return carries
// KindNotFound for a missing file and storage failures.
func (s *Service) AuthorizeRead(ctx context.Context, user schema.User, fileID int64) (bool, error) {
	err := s.gate.Authorize(ctx, user, fileID, schema.CapabilityRead)
	if err == nil {
		return true, nil
	}
	if access.IsKind(err, access.KindDenied) {
		return false, nil
	}
	return false, err
}

// ListFiles returns the files the user can read, in ID order.
func (s *Service) ListFiles(ctx context.Context, user schema.User) ([]schema.File, error) {
	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return s.gate.FilterReadable(ctx, user, files)
}

// AuthorizeGrantManagement reports whether actor may manage grants on
// the file for the given target. Shapes the gate's decision the same
// way AuthorizeRead does: denial is false, missing file is an error.
func (s *Service) AuthorizeGrantManagement(ctx context.Context, actor schema.User, fileID, targetUserID int64) (bool, error) {
	err := s.gate.AuthorizeGrantManagement(ctx, actor, fileID, targetUserID)
	if err == nil {
		return true, nil
	}
	if access.IsKind(err, access.KindDenied) {
		return false, nil
	}
	return false, err
}

// MutateGrant creates or replaces the grant for (fileID,
// targetUserID) with the given capabilities and publishes a
// permission_update event after the commit.
//
// The actor must hold grant management on the file. The target must
// be an existing user (KindNotFound otherwise) and must not be the
// file's owner (KindValidation): the owner's capabilities are
// intrinsic and a grant row for them would be dead weight that the
// engine ignores.
func (s *Service) MutateGrant(ctx context.Context, actor schema.User, fileID, targetUserID int64, capabilities schema.Capabilities) (schema.Grant, error) {
	if err := s.gate.AuthorizeGrantManagement(ctx, actor, fileID, targetUserID); err != nil {
		return schema.Grant{}, err
	}

	target, err := s.users.GetUser(ctx, targetUserID)
	if err != nil {
		return schema.Grant{}, err
	}
	if target == nil {
		return schema.Grant{}, access.NotFound("user %d not found", targetUserID)
	}

	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return schema.Grant{}, err
	}
	if file == nil {
		// The gate saw the file moments ago; it was deleted in
		// between.
		return schema.Grant{}, access.NotFound("file %d not found", fileID)
	}
	if file.OwnerID == targetUserID {
		return schema.Grant{}, access.Invalid("user %d owns file %d and cannot be granted to", targetUserID, fileID)
	}

	grant, err := s.grants.UpsertGrant(ctx, fileID, targetUserID, capabilities, actor.ID)
	if err != nil {
		return schema.Grant{}, err
	}

	s.logger.Info("grant written",
		"file_id", fileID,
		"target_user_id", targetUserID,
		"actor_id", actor.ID,
		"read", capabilities.Read,
		"write", capabilities.Write,
		"share", capabilities.Share)
	s.notifier.Notify(fileID)
	return grant, nil
}

// RevokeGrant removes the grant for (fileID, targetUserID). Revoking
// an absent grant succeeds without publishing an event: nothing
// changed, so subscribers have nothing to re-query.
func (s *Service) RevokeGrant(ctx context.Context, actor schema.User, fileID, targetUserID int64) error {
	if err := s.gate.AuthorizeGrantManagement(ctx, actor, fileID, targetUserID); err != nil {
		return err
	}

	removed, err := s.grants.DeleteGrant(ctx, fileID, targetUserID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	s.logger.Info("grant revoked",
		"file_id", fileID,
		"target_user_id", targetUserID,
		"actor_id", actor.ID)
	s.notifier.Notify(fileID)
	return nil
}

// ListGrants returns all grants on the file. Restricted to actors who
// hold the share capability on it; a grant listing reveals who has
// access, which is itself access-controlled information.
func (s *Service) ListGrants(ctx context.Context, actor schema.User, fileID int64) ([]schema.Grant, error) {
	if err := s.gate.Authorize(ctx, actor, fileID, schema.CapabilityShare); err != nil {
		return nil, err
	}
	return s.grants.ListGrants(ctx, fileID)
}

// Subscribe registers a channel for permission_update events.
func (s *Service) Subscribe(events chan<- schema.Event) {
	s.notifier.Subscribe(events)
}

// Unsubscribe removes a previously subscribed channel.
func (s *Service) Unsubscribe(events chan<- schema.Event) {
	s.notifier.Unsubscribe(events)
}
