// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/filegate/filegate/lib/codec"
	"github.com/filegate/filegate/lib/schema"
)

// actorRequest is the common prefix of every authenticated request:
// the acting user's ID. The socket is the trust boundary; the actor
// is resolved against the user store, not authenticated here.
type actorRequest struct {
	ActorID int64 `cbor:"actor_id"`
}

// resolveActor decodes the actor_id field and loads the user. Fails
// for an absent field (zero is never a valid user ID) or an unknown
// user.
func (s *gateService) resolveActor(ctx context.Context, raw []byte) (schema.User, error) {
	var request actorRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return schema.User{}, fmt.Errorf("invalid request: %w", err)
	}
	if request.ActorID == 0 {
		return schema.User{}, fmt.Errorf("missing required field: actor_id")
	}
	actor, err := s.users.GetUser(ctx, request.ActorID)
	if err != nil {
		return schema.User{}, err
	}
	if actor == nil {
		return schema.User{}, fmt.Errorf("unknown actor %d", request.ActorID)
	}
	return *actor, nil
}

// capabilitiesPayload is the wire form of a capability tuple.
type capabilitiesPayload struct {
	Read  bool `cbor:"read"`
	Write bool `cbor:"write"`
	Share bool `cbor:"share"`
}

// filePayload is the wire form of file metadata.
type filePayload struct {
	ID        int64  `cbor:"id"`
	OwnerID   int64  `cbor:"owner_id"`
	Name      string `cbor:"name"`
	Size      int64  `cbor:"size"`
	CreatedAt int64  `cbor:"created_at"`
}

// grantPayload is the wire form of a grant.
type grantPayload struct {
	FileID       int64               `cbor:"file_id"`
	UserID       int64               `cbor:"user_id"`
	Capabilities capabilitiesPayload `cbor:"capabilities"`
	GrantedBy    int64               `cbor:"granted_by"`
	GrantedAt    int64               `cbor:"granted_at"`
}

func toGrantPayload(grant schema.Grant) grantPayload {
	return grantPayload{
		FileID: grant.FileID,
		UserID: grant.UserID,
		Capabilities: capabilitiesPayload{
			Read:  grant.Capabilities.Read,
			Write: grant.Capabilities.Write,
			Share: grant.Capabilities.Share,
		},
		GrantedBy: grant.GrantedBy,
		GrantedAt: grant.GrantedAt.UnixNano(),
	}
}

// handleAuthorizeRead answers "may actor read this file". A denial is
// a normal allowed=false response; only missing files and internal
// failures are errors.
func (s *gateService) handleAuthorizeRead(ctx context.Context, raw []byte) (any, error) {
	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		return nil, err
	}
	var request struct {
		FileID int64 `cbor:"file_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	allowed, err := s.sharing.AuthorizeRead(ctx, actor, request.FileID)
	if err != nil {
		return nil, err
	}
	s.checksServed.Add(1)
	return map[string]bool{"allowed": allowed}, nil
}

// handleListFiles returns the files the actor can read.
func (s *gateService) handleListFiles(ctx context.Context, raw []byte) (any, error) {
	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		return nil, err
	}

	files, err := s.sharing.ListFiles(ctx, actor)
	if err != nil {
		return nil, err
	}
	s.checksServed.Add(1)

	payload := make([]filePayload, len(files))
	for i, file := range files {
		payload[i] = filePayload{
			ID:        file.ID,
			OwnerID:   file.OwnerID,
			Name:      file.Name,
			Size:      file.Size,
			CreatedAt: file.CreatedAt.UnixNano(),
		}
	}
	return map[string]any{"files": payload}, nil
}

// handleGrant creates or replaces a grant. When the capabilities
// field is omitted the grant defaults to read-only.
func (s *gateService) handleGrant(ctx context.Context, raw []byte) (any, error) {
	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		return nil, err
	}
	var request struct {
		FileID       int64                `cbor:"file_id"`
		UserID       int64                `cbor:"user_id"`
		Capabilities *capabilitiesPayload `cbor:"capabilities"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	capabilities := schema.DefaultCapabilities()
	if request.Capabilities != nil {
		capabilities = schema.Capabilities{
			Read:  request.Capabilities.Read,
			Write: request.Capabilities.Write,
			Share: request.Capabilities.Share,
		}
	}

	grant, err := s.sharing.MutateGrant(ctx, actor, request.FileID, request.UserID, capabilities)
	if err != nil {
		return nil, err
	}
	s.grantsWritten.Add(1)
	return map[string]any{"grant": toGrantPayload(grant)}, nil
}

// handleRevoke removes a grant. Revoking an absent grant succeeds.
func (s *gateService) handleRevoke(ctx context.Context, raw []byte) (any, error) {
	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		return nil, err
	}
	var request struct {
		FileID int64 `cbor:"file_id"`
		UserID int64 `cbor:"user_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if err := s.sharing.RevokeGrant(ctx, actor, request.FileID, request.UserID); err != nil {
		return nil, err
	}
	s.grantsRevoked.Add(1)
	return nil, nil
}

// handleGrants lists the grants on a file, restricted to actors with
// the share capability on it.
func (s *gateService) handleGrants(ctx context.Context, raw []byte) (any, error) {
	actor, err := s.resolveActor(ctx, raw)
	if err != nil {
		return nil, err
	}
	var request struct {
		FileID int64 `cbor:"file_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	grants, err := s.sharing.ListGrants(ctx, actor, request.FileID)
	if err != nil {
		return nil, err
	}

	payload := make([]grantPayload, len(grants))
	for i, grant := range grants {
		payload[i] = toGrantPayload(grant)
	}
	return map[string]any{"grants": payload}, nil
}
