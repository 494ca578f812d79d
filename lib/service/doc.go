// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix-socket CBOR protocol server for
// Filegate daemons.
//
// Each connection carries one request: a single CBOR map with an
// "action" field that routes to a registered handler. Plain actions
// produce one response and close. Stream actions keep the connection
// open and hand it to the handler, which writes CBOR frames until the
// client disconnects or the server shuts down.
//
// The socket is the trust boundary: anyone who can connect is a
// legitimate frontend, and the actor a request names is resolved
// against the user store rather than authenticated here. Filesystem
// permissions on the socket path are the access control.
package service
