// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/filegate/filegate/lib/access"
	"github.com/filegate/filegate/lib/clock"
	"github.com/filegate/filegate/lib/schema"
	"github.com/filegate/filegate/lib/sqlitepool"
)

// databaseSchema is applied to every connection on first use. The
// grants table's composite primary key is the one-grant-per-pair
// invariant; ON DELETE CASCADE makes entity deletion sweep grants
// inside SQLite instead of in application code.
const databaseSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id    INTEGER PRIMARY KEY,
		name  TEXT NOT NULL DEFAULT '',
		admin INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS files (
		id         INTEGER PRIMARY KEY,
		owner_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       TEXT NOT NULL DEFAULT '',
		size       INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_files_owner ON files(owner_id);

	CREATE TABLE IF NOT EXISTS grants (
		file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		can_read   INTEGER NOT NULL,
		can_write  INTEGER NOT NULL,
		can_share  INTEGER NOT NULL,
		granted_by INTEGER NOT NULL DEFAULT 0,
		granted_at INTEGER NOT NULL,
		PRIMARY KEY (file_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_grants_user ON grants(user_id);
`

// Store is the SQLite implementation of Files, Users, and Grants.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. The parent directory must
	// exist. Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Clock provides grant and file timestamps. Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

// Open creates a store backed by SQLite, creating the database file
// and schema as needed. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("store: Logger is required")
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, databaseSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// --- Users ---

// GetUser returns the user with the given ID, or nil if absent.
func (s *Store) GetUser(ctx context.Context, id int64) (*schema.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	defer s.pool.Put(conn)

	var user *schema.User
	err = sqlitex.Execute(conn, `SELECT id, name, admin FROM users WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			user = &schema.User{
				ID:    stmt.ColumnInt64(0),
				Name:  stmt.ColumnText(1),
				Admin: stmt.ColumnInt(2) != 0,
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return user, nil
}

// PutUser creates or replaces a user row. Entity lifecycle belongs to
// the external identity service; the sharing core never calls this.
func (s *Store) PutUser(ctx context.Context, user schema.User) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: put user: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO users (id, name, admin) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, admin = excluded.admin`,
		&sqlitex.ExecOptions{
			Args: []any{user.ID, user.Name, boolToInt(user.Admin)},
		})
	if err != nil {
		return fmt.Errorf("store: put user %d: %w", user.ID, err)
	}
	return nil
}

// DeleteUser removes a user row. Grants held by the user — and files
// owned by the user, with their grants — cascade away inside SQLite.
// Idempotent.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM users WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("store: delete user %d: %w", id, err)
	}
	return nil
}

// --- Files ---

// GetFile returns the file with the given ID, or nil if absent.
func (s *Store) GetFile(ctx context.Context, id int64) (*schema.File, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: get file: %w", err)
	}
	defer s.pool.Put(conn)

	var file *schema.File
	err = sqlitex.Execute(conn, `SELECT id, owner_id, name, size, created_at FROM files WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			file = &schema.File{
				ID:        stmt.ColumnInt64(0),
				OwnerID:   stmt.ColumnInt64(1),
				Name:      stmt.ColumnText(2),
				Size:      stmt.ColumnInt64(3),
				CreatedAt: time.Unix(0, stmt.ColumnInt64(4)).UTC(),
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: get file %d: %w", id, err)
	}
	return file, nil
}

// ListFiles returns all file metadata rows, ordered by ID.
func (s *Store) ListFiles(ctx context.Context) ([]schema.File, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list files: %w", err)
	}
	defer s.pool.Put(conn)

	var files []schema.File
	err = sqlitex.Execute(conn, `SELECT id, owner_id, name, size, created_at FROM files ORDER BY id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			files = append(files, schema.File{
				ID:        stmt.ColumnInt64(0),
				OwnerID:   stmt.ColumnInt64(1),
				Name:      stmt.ColumnText(2),
				Size:      stmt.ColumnInt64(3),
				CreatedAt: time.Unix(0, stmt.ColumnInt64(4)).UTC(),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: list files: %w", err)
	}
	return files, nil
}

// PutFile creates or replaces a file metadata row. Called by the
// upload pipeline, never by the sharing core. Returns KindConflict if
// the owner row does not exist.
func (s *Store) PutFile(ctx context.Context, file schema.File) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: put file: %w", err)
	}
	defer s.pool.Put(conn)

	createdAt := file.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO files (id, owner_id, name, size, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			size = excluded.size`,
		&sqlitex.ExecOptions{
			Args: []any{file.ID, file.OwnerID, file.Name, file.Size, createdAt.UnixNano()},
		})
	if err != nil {
		return translateError(fmt.Sprintf("put file %d", file.ID), err)
	}
	return nil
}

// DeleteFile removes a file metadata row; its grants cascade away.
// Idempotent.
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: delete file: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM files WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("store: delete file %d: %w", id, err)
	}
	return nil
}

// --- Grants ---

// GetGrant returns the grant for (fileID, userID), or nil if absent.
func (s *Store) GetGrant(ctx context.Context, fileID, userID int64) (*schema.Grant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: get grant: %w", err)
	}
	defer s.pool.Put(conn)

	var grant *schema.Grant
	err = sqlitex.Execute(conn, `
		SELECT file_id, user_id, can_read, can_write, can_share, granted_by, granted_at
		FROM grants WHERE file_id = ? AND user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{fileID, userID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scanned := scanGrant(stmt)
				grant = &scanned
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: get grant (%d, %d): %w", fileID, userID, err)
	}
	return grant, nil
}

// ListGrants returns all grants on a file, unordered.
func (s *Store) ListGrants(ctx context.Context, fileID int64) ([]schema.Grant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list grants: %w", err)
	}
	defer s.pool.Put(conn)

	var grants []schema.Grant
	err = sqlitex.Execute(conn, `
		SELECT file_id, user_id, can_read, can_write, can_share, granted_by, granted_at
		FROM grants WHERE file_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{fileID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				grants = append(grants, scanGrant(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: list grants for file %d: %w", fileID, err)
	}
	return grants, nil
}

// UpsertGrant atomically creates or replaces the grant for
// (fileID, userID). The single INSERT ... ON CONFLICT statement is the
// atomicity guarantee: concurrent callers race to commit, SQLite
// serializes them, and exactly one row remains with the content of
// whichever write committed last.
func (s *Store) UpsertGrant(ctx context.Context, fileID, userID int64, capabilities schema.Capabilities, grantedBy int64) (schema.Grant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return schema.Grant{}, fmt.Errorf("store: upsert grant: %w", err)
	}
	defer s.pool.Put(conn)

	grantedAt := s.clock.Now()
	err = sqlitex.Execute(conn, `
		INSERT INTO grants (file_id, user_id, can_read, can_write, can_share, granted_by, granted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_id, user_id) DO UPDATE SET
			can_read   = excluded.can_read,
			can_write  = excluded.can_write,
			can_share  = excluded.can_share,
			granted_by = excluded.granted_by,
			granted_at = excluded.granted_at`,
		&sqlitex.ExecOptions{
			Args: []any{
				fileID, userID,
				boolToInt(capabilities.Read), boolToInt(capabilities.Write), boolToInt(capabilities.Share),
				grantedBy, grantedAt.UnixNano(),
			},
		})
	if err != nil {
		return schema.Grant{}, translateError(fmt.Sprintf("upsert grant (%d, %d)", fileID, userID), err)
	}

	return schema.Grant{
		FileID:       fileID,
		UserID:       userID,
		Capabilities: capabilities,
		GrantedBy:    grantedBy,
		GrantedAt:    grantedAt.UTC(),
	}, nil
}

// DeleteGrant removes the grant for (fileID, userID). Idempotent;
// reports whether a row was removed.
func (s *Store) DeleteGrant(ctx context.Context, fileID, userID int64) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("store: delete grant: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM grants WHERE file_id = ? AND user_id = ?`, &sqlitex.ExecOptions{
		Args: []any{fileID, userID},
	})
	if err != nil {
		return false, fmt.Errorf("store: delete grant (%d, %d): %w", fileID, userID, err)
	}
	return conn.Changes() > 0, nil
}

// scanGrant reads one grants row from a statement positioned on it.
func scanGrant(stmt *sqlite.Stmt) schema.Grant {
	return schema.Grant{
		FileID: stmt.ColumnInt64(0),
		UserID: stmt.ColumnInt64(1),
		Capabilities: schema.Capabilities{
			Read:  stmt.ColumnInt(2) != 0,
			Write: stmt.ColumnInt(3) != 0,
			Share: stmt.ColumnInt(4) != 0,
		},
		GrantedBy: stmt.ColumnInt64(5),
		GrantedAt: time.Unix(0, stmt.ColumnInt64(6)).UTC(),
	}
}

// translateError maps SQLite errors to the core taxonomy before they
// cross the store boundary. Constraint violations (a file or user row
// deleted out from under a grant write) become KindConflict; anything
// else stays a wrapped storage error for the caller's logs, which the
// facade reports as internal.
func translateError(operation string, err error) error {
	if code := sqlite.ErrCode(err); code.ToPrimary() == sqlite.ResultConstraint {
		return access.Conflict("%s: %v", operation, err)
	}
	return fmt.Errorf("store: %s: %w", operation, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
