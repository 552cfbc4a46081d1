// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package auth provides credential primitives and the bearer-token middleware.

Key Components:

  - PasswordHasher: bcrypt hashing at a configurable cost
  - JWTManager: HS256 token issue and validation (default validity 7 days)
  - GenerateVerificationToken: random hex tokens for email verification
  - Middleware: Authorization: Bearer enforcement for protected routes

Protected handlers read the authenticated user id with ClaimsFromContext:

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
	    // route was not wrapped with Authenticate
	}
	user, err := svc.Me(ctx, claims.UserID)

Failures are reported as 401 with a JSON body {"error": "..."}.
*/
package auth
