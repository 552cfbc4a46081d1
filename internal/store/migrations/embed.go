// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package migrations embeds the goose SQL migrations for the postgres store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
