// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package mail delivers account emails through an in-process outbox.

Account flows never talk to a mail server directly. The Outbox publishes a
small JSON envelope on a Watermill GoChannel topic and returns immediately;
the Dispatcher consumes those topics through a Watermill Router, renders the
HTML and plaintext bodies and hands them to a Transport.

Topics:

  - mail.verification: email verification link after register or resend
  - mail.welcome: sent once an address is verified
  - mail.dead_letter: envelopes that failed every retry

Router middleware, outermost first:

  - PoisonQueue: moves envelopes that exhausted retries to mail.dead_letter
  - Retry: exponential backoff for transport failures
  - Recoverer: converts handler panics into errors

Transports:

  - LogTransport logs the recipient and link. Used when no SMTP host is set.
  - SMTPTransport sends multipart/alternative mail with net/smtp.

Usage:

	pubsub := mail.NewPubSub()
	outbox := mail.NewOutbox(pubsub)
	dispatcher, err := mail.NewDispatcher(pubsub, pubsub, renderer, transport, mail.DefaultDispatcherConfig())
	go dispatcher.Run(ctx)
	_ = outbox.QueueWelcome(ctx, "ada@example.com", "Ada")
*/
package mail
