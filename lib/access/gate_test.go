// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/filegate/filegate/lib/schema"
)

// memoryReader is an in-memory FileReader and GrantReader for gate
// tests.
type memoryReader struct {
	files  map[int64]schema.File
	grants map[[2]int64]schema.Grant
}

func (m *memoryReader) GetFile(ctx context.Context, id int64) (*schema.File, error) {
	if file, ok := m.files[id]; ok {
		return &file, nil
	}
	return nil, nil
}

func (m *memoryReader) GetGrant(ctx context.Context, fileID, userID int64) (*schema.Grant, error) {
	if grant, ok := m.grants[[2]int64{fileID, userID}]; ok {
		return &grant, nil
	}
	return nil, nil
}

var (
	owner    = schema.User{ID: 1, Name: "alice"}
	reader   = schema.User{ID: 2, Name: "bob"}
	stranger = schema.User{ID: 3, Name: "carol"}
	admin    = schema.User{ID: 4, Name: "root", Admin: true}
)

func newTestGate(t *testing.T) (*Gate, *memoryReader) {
	t.Helper()
	mem := &memoryReader{
		files: map[int64]schema.File{
			10: {ID: 10, OwnerID: owner.ID, Name: "report.pdf"},
		},
		grants: map[[2]int64]schema.Grant{
			{10, reader.ID}: {
				FileID:       10,
				UserID:       reader.ID,
				Capabilities: schema.Capabilities{Read: true},
				GrantedBy:    owner.ID,
			},
		},
	}
	gate, err := NewGate(mem, mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return gate, mem
}

func TestAuthorize(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		user       schema.User
		fileID     int64
		capability schema.Capability
		wantKind   Kind
		wantOK     bool
	}{
		{"owner read", owner, 10, schema.CapabilityRead, 0, true},
		{"owner write", owner, 10, schema.CapabilityWrite, 0, true},
		{"owner share", owner, 10, schema.CapabilityShare, 0, true},
		{"admin write", admin, 10, schema.CapabilityWrite, 0, true},
		{"grantee read", reader, 10, schema.CapabilityRead, 0, true},
		{"grantee write denied", reader, 10, schema.CapabilityWrite, KindDenied, false},
		{"grantee share denied", reader, 10, schema.CapabilityShare, KindDenied, false},
		{"stranger read denied", stranger, 10, schema.CapabilityRead, KindDenied, false},
		{"missing file", owner, 99, schema.CapabilityRead, KindNotFound, false},
		{"missing file for stranger", stranger, 99, schema.CapabilityRead, KindNotFound, false},
		{"bogus capability", owner, 10, schema.Capability("delete"), KindValidation, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.Authorize(ctx, tc.user, tc.fileID, tc.capability)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("Authorize = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Authorize = nil, want error")
			}
			if !IsKind(err, tc.wantKind) {
				t.Errorf("Authorize = %v, want kind %s", err, tc.wantKind)
			}
		})
	}
}

func TestAuthorizeNotFoundBeatsDenied(t *testing.T) {
	// A missing file must report KindNotFound even for a user who
	// would also lack the capability, so that enforcement never
	// fabricates a file's existence.
	gate, _ := newTestGate(t)
	err := gate.Authorize(context.Background(), stranger, 404, schema.CapabilityRead)
	if !IsKind(err, KindNotFound) {
		t.Errorf("Authorize on missing file = %v, want KindNotFound", err)
	}
}

func TestAuthorizeGrantManagement(t *testing.T) {
	gate, mem := newTestGate(t)
	ctx := context.Background()

	// Give bob the share capability on a second file so a
	// non-owner manager case exists.
	mem.files[20] = schema.File{ID: 20, OwnerID: owner.ID, Name: "notes.txt"}
	mem.grants[[2]int64{20, reader.ID}] = schema.Grant{
		FileID:       20,
		UserID:       reader.ID,
		Capabilities: schema.Capabilities{Read: true, Share: true},
		GrantedBy:    owner.ID,
	}

	tests := []struct {
		name     string
		actor    schema.User
		fileID   int64
		targetID int64
		wantKind Kind
		wantOK   bool
	}{
		{"owner grants", owner, 10, stranger.ID, 0, true},
		{"admin grants", admin, 10, stranger.ID, 0, true},
		{"share-capable grantee grants", reader, 20, stranger.ID, 0, true},
		{"read-only grantee denied", reader, 10, stranger.ID, KindDenied, false},
		{"stranger denied", stranger, 10, reader.ID, KindDenied, false},
		{"self-target denied", reader, 20, reader.ID, KindDenied, false},
		{"admin self-target allowed", admin, 10, admin.ID, 0, true},
		{"missing file", owner, 99, stranger.ID, KindNotFound, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := gate.AuthorizeGrantManagement(ctx, tc.actor, tc.fileID, tc.targetID)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("AuthorizeGrantManagement = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("AuthorizeGrantManagement = nil, want error")
			}
			if !IsKind(err, tc.wantKind) {
				t.Errorf("AuthorizeGrantManagement = %v, want kind %s", err, tc.wantKind)
			}
		})
	}
}

func TestFilterReadable(t *testing.T) {
	gate, mem := newTestGate(t)
	ctx := context.Background()

	mem.files[20] = schema.File{ID: 20, OwnerID: stranger.ID, Name: "secret.txt"}
	mem.files[30] = schema.File{ID: 30, OwnerID: owner.ID, Name: "draft.md"}
	all := []schema.File{mem.files[10], mem.files[20], mem.files[30]}

	t.Run("owner sees owned files only", func(t *testing.T) {
		got, err := gate.FilterReadable(ctx, owner, all)
		if err != nil {
			t.Fatalf("FilterReadable: %v", err)
		}
		if len(got) != 2 || got[0].ID != 10 || got[1].ID != 30 {
			t.Errorf("FilterReadable = %v, want files 10 and 30 in order", fileIDs(got))
		}
	})

	t.Run("grantee sees granted file", func(t *testing.T) {
		got, err := gate.FilterReadable(ctx, reader, all)
		if err != nil {
			t.Fatalf("FilterReadable: %v", err)
		}
		if len(got) != 1 || got[0].ID != 10 {
			t.Errorf("FilterReadable = %v, want file 10 only", fileIDs(got))
		}
	})

	t.Run("admin sees everything", func(t *testing.T) {
		got, err := gate.FilterReadable(ctx, admin, all)
		if err != nil {
			t.Fatalf("FilterReadable: %v", err)
		}
		if len(got) != len(all) {
			t.Errorf("FilterReadable = %v, want all files", fileIDs(got))
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := gate.FilterReadable(ctx, reader, all)
		if err != nil {
			t.Fatalf("FilterReadable: %v", err)
		}
		twice, err := gate.FilterReadable(ctx, reader, once)
		if err != nil {
			t.Fatalf("FilterReadable (second pass): %v", err)
		}
		if len(twice) != len(once) {
			t.Errorf("second filter pass changed length: %d -> %d", len(once), len(twice))
		}
		for i := range twice {
			if twice[i].ID != once[i].ID {
				t.Errorf("second filter pass reordered: %v vs %v", fileIDs(once), fileIDs(twice))
				break
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := gate.FilterReadable(ctx, stranger, nil)
		if err != nil {
			t.Fatalf("FilterReadable: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("FilterReadable(nil) = %v, want empty", fileIDs(got))
		}
	})
}

func fileIDs(files []schema.File) []int64 {
	ids := make([]int64, len(files))
	for i, file := range files {
		ids[i] = file.ID
	}
	return ids
}
