// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package main is the entry point for the Cycles server.

Cycles backs the Breaking Cycles community platform: account registration
with email verification, topic rooms with a persistent message log, live
room chat over WebSocket, a contact form and course enrollments.

# Application Architecture

	RootSupervisor ("cycles")
	├── DataSupervisor ("data-layer")
	│   └── Store monitor (store_up gauge)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub (room presence and broadcast)
	│   └── Mail dispatcher (Watermill outbox consumer)
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi router)

Initialization order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Storage: memory, BadgerDB or PostgreSQL (goose migrations)
 4. Credentials: bcrypt hasher and HS256 JWT manager
 5. Mail: in-process pub/sub, outbox, renderer and transport
 6. Community service, then seed data
 7. WebSocket hub, API handler and router
 8. Supervisor tree, then signal handling

# Configuration

Frequently used environment variables:

	HTTP_PORT                   listen port (3000)
	JWT_SECRET                  token signing secret, required
	STORAGE_BACKEND             memory, badger or postgres
	BADGER_PATH                 BadgerDB directory
	DATABASE_URL                PostgreSQL DSN
	REQUIRE_EMAIL_VERIFICATION  reject unverified logins (true)
	FRONTEND_URL                base of links in emails
	SMTP_HOST, SMTP_PORT        enable SMTP delivery; emails are logged otherwise
	SMTP_USER, SMTP_PASS        SMTP credentials
	CORS_ORIGINS                comma separated list
	WS_ALLOWED_ORIGINS          comma separated list for the WebSocket handshake
	SEED_ROOMS, SEED_TEST_USER  bootstrap data
	LOG_LEVEL, LOG_FORMAT       zerolog settings

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, the hub closes every session and the mail router stops
after its close timeout. Services that miss the deadline are logged.

# Example Usage

	export JWT_SECRET=$(openssl rand -base64 32)
	export STORAGE_BACKEND=badger
	export REQUIRE_EMAIL_VERIFICATION=false
	./cycles
*/
package main
