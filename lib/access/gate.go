// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filegate/filegate/lib/authorization"
	"github.com/filegate/filegate/lib/schema"
)

// FileReader is the slice of the store the gate needs for file
// lookups.
type FileReader interface {
	GetFile(ctx context.Context, id int64) (*schema.File, error)
}

// GrantReader is the slice of the store the gate needs for grant
// lookups.
type GrantReader interface {
	GetGrant(ctx context.Context, fileID, userID int64) (*schema.Grant, error)
}

// Gate enforces authorization on file-scoped operations. It loads the
// file and the caller's grant, delegates the capability decision to
// the authorization package, and converts the outcome into the error
// taxonomy. It holds no mutable state and is safe for concurrent use.
type Gate struct {
	files  FileReader
	grants GrantReader
	logger *slog.Logger
}

// NewGate creates a gate over the given readers. Logger is required.
func NewGate(files FileReader, grants GrantReader, logger *slog.Logger) (*Gate, error) {
	if files == nil {
		return nil, fmt.Errorf("access: files reader is required")
	}
	if grants == nil {
		return nil, fmt.Errorf("access: grants reader is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("access: logger is required")
	}
	return &Gate{files: files, grants: grants, logger: logger}, nil
}

// Authorize checks whether user holds the given capability on the
// file. Returns nil on success, KindNotFound if the file does not
// exist, and KindDenied if the file exists but the capability is
// absent. Missing-file and present-but-denied are deliberately
// distinct: callers that surface errors to remote users may choose to
// collapse them, but the gate itself never loses the distinction.
func (g *Gate) Authorize(ctx context.Context, user schema.User, fileID int64, capability schema.Capability) error {
	if !capability.Valid() {
		return Invalid("unknown capability %q", capability)
	}

	result, file, err := g.explain(ctx, user, fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return NotFound("file %d not found", fileID)
	}
	if !authorization.Has(result.Capabilities, capability) {
		g.logger.Debug("capability denied",
			"user_id", user.ID,
			"file_id", fileID,
			"capability", string(capability),
			"reason", result.Reason.String())
		return Denied("user %d lacks %s on file %d", user.ID, capability, fileID)
	}
	return nil
}

// AuthorizeGrantManagement checks whether actor may create, modify, or
// revoke grants on the file. Management requires the share capability;
// owners and admins always hold it. Self-service is rejected: an
// actor cannot manage a grant targeting themselves unless they are an
// admin, which keeps share-capable users from escalating their own
// access.
func (g *Gate) AuthorizeGrantManagement(ctx context.Context, actor schema.User, fileID, targetUserID int64) error {
	result, file, err := g.explain(ctx, actor, fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return NotFound("file %d not found", fileID)
	}
	if !result.Capabilities.Share {
		return Denied("user %d may not manage grants on file %d", actor.ID, fileID)
	}
	if actor.ID == targetUserID && !actor.Admin {
		return Denied("user %d may not manage their own grant on file %d", actor.ID, fileID)
	}
	return nil
}

// FilterReadable returns the subset of files the user can read, in the
// input order. A file the user cannot read is dropped, never an
// error; listing is a filter, not a permission check. Idempotent:
// filtering an already-filtered slice returns it unchanged.
func (g *Gate) FilterReadable(ctx context.Context, user schema.User, files []schema.File) ([]schema.File, error) {
	readable := make([]schema.File, 0, len(files))
	for _, file := range files {
		grant, err := g.grants.GetGrant(ctx, file.ID, user.ID)
		if err != nil {
			return nil, err
		}
		if authorization.EffectiveCapabilities(user, file, grant).Read {
			readable = append(readable, file)
		}
	}
	return readable, nil
}

// explain loads the file and the user's grant and evaluates the
// capability set. The returned file is nil when it does not exist; in
// that case the result is meaningless.
func (g *Gate) explain(ctx context.Context, user schema.User, fileID int64) (authorization.Result, *schema.File, error) {
	file, err := g.files.GetFile(ctx, fileID)
	if err != nil {
		return authorization.Result{}, nil, err
	}
	if file == nil {
		return authorization.Result{}, nil, nil
	}
	grant, err := g.grants.GetGrant(ctx, fileID, user.ID)
	if err != nil {
		return authorization.Result{}, nil, err
	}
	return authorization.Explain(user, *file, grant), file, nil
}
