// Copyright 2026 The Filegate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Filegate
// service.
//
// Configuration is loaded from a single YAML file specified by:
//   - FILEGATE_CONFIG environment variable, or
//   - --config flag passed to the service binary
//
// There are no fallbacks or automatic discovery. This keeps the
// configuration deterministic and auditable: what the file says is
// what runs, with no hidden overrides from the environment.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when the environment
// matches.
package config
