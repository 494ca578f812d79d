// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/filegate/filegate/lib/schema"
)

// Files is the file repository consumed by the access gate and the
// sharing facade.
type Files interface {
	// GetFile returns the file with the given ID, or nil if absent.
	GetFile(ctx context.Context, id int64) (*schema.File, error)

	// ListFiles returns all file metadata rows, ordered by ID. The
	// result is unfiltered; visibility is the access gate's job.
	ListFiles(ctx context.Context) ([]schema.File, error)
}

// Users is the user repository consumed by the sharing facade.
type Users interface {
	// GetUser returns the user with the given ID, or nil if absent.
	GetUser(ctx context.Context, id int64) (*schema.User, error)
}

// Grants is the grant repository. All mutation methods are
// transactional with respect to the single grant row they touch; a
// successful return is a durable commit.
type Grants interface {
	// GetGrant returns the grant for (fileID, userID), or nil if
	// absent.
	GetGrant(ctx context.Context, fileID, userID int64) (*schema.Grant, error)

	// ListGrants returns all grants on a file. The result is
	// unordered; callers must not assume stable ordering.
	ListGrants(ctx context.Context, fileID int64) ([]schema.Grant, error)

	// UpsertGrant atomically creates or replaces the grant for
	// (fileID, userID) with the given capability tuple. Even under
	// concurrent calls there is never more than one row for the pair;
	// the content is whichever write committed last. Returns
	// KindConflict if the referenced file or user row is gone at
	// commit time.
	UpsertGrant(ctx context.Context, fileID, userID int64, capabilities schema.Capabilities, grantedBy int64) (schema.Grant, error)

	// DeleteGrant removes the grant for (fileID, userID). Idempotent:
	// deleting an absent grant is a no-op. Reports whether a row was
	// actually removed so callers can skip notification when nothing
	// changed.
	DeleteGrant(ctx context.Context, fileID, userID int64) (bool, error)
}
