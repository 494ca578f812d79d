// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes CBOR encoding for the Filegate socket
// protocol. Every request, response, and subscribe frame crossing the
// service socket goes through this package so that encoder and decoder
// options are configured in exactly one place.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// The same logical value always produces identical bytes. Decoding
// ignores unknown fields for forward compatibility — an old client may
// talk to a newer service without breaking.
package codec
