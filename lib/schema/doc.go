// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the data model shared by every Filegate
// package: users, files, permission grants, the capability tuple, and
// the permission_update event delivered to subscribers.
//
// The types here are plain values with no behavior beyond capability
// defaulting. All policy (who may do what) lives in lib/authorization;
// all persistence lives in lib/store. Keeping the model dependency-free
// lets the pure evaluation code be tested without any storage.
//
// Identity is numeric (int64) for users and files. The subscriber wire
// contract pins the event payload shape: a "type" field that is always
// "permission_update" and an integer "fileId". No other event fields
// are guaranteed, and no ordering between events for different files is
// guaranteed.
package schema
