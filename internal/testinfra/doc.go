// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package testinfra provides test infrastructure for integration testing with containers.
//
// The helpers use testcontainers-go and are compiled only with the
// integration build tag:
//
//	go test -tags integration ./internal/store/...
//
// Tests call SkipIfNoDocker first so the suite degrades to a skip on
// machines without a Docker daemon.
package testinfra
