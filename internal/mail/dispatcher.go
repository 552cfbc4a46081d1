// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
)

// DispatcherConfig tunes delivery retries.
type DispatcherConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultDispatcherConfig returns production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Dispatcher consumes outbox topics and delivers each envelope.
type Dispatcher struct {
	router    *message.Router
	renderer  *Renderer
	transport Transport
}

// NewDispatcher wires the outbox handlers onto a Watermill Router.
// Envelopes that fail every retry are republished on TopicDeadLetter
// through deadLetters.
func NewDispatcher(
	subscriber message.Subscriber,
	deadLetters message.Publisher,
	renderer *Renderer,
	transport Transport,
	cfg DispatcherConfig,
) (*Dispatcher, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create mail router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(deadLetters, TopicDeadLetter)
	if err != nil {
		return nil, fmt.Errorf("create mail poison queue: %w", err)
	}
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	router.AddMiddleware(poisonQueue, retry.Middleware, middleware.Recoverer)

	d := &Dispatcher{router: router, renderer: renderer, transport: transport}

	router.AddConsumerHandler("mail-verification", TopicVerification, subscriber, d.handle)
	router.AddConsumerHandler("mail-welcome", TopicWelcome, subscriber, d.handle)
	router.AddConsumerHandler("mail-dead-letter", TopicDeadLetter, subscriber, d.handleDeadLetter)

	return d, nil
}

// Run blocks until ctx is cancelled or the router stops.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (d *Dispatcher) Running() chan struct{} {
	return d.router.Running()
}

// Close stops the router.
func (d *Dispatcher) Close() error {
	return d.router.Close()
}

func (d *Dispatcher) handle(msg *message.Message) error {
	env, err := decodeEnvelope(msg.Payload)
	if err != nil {
		// Malformed envelopes can never succeed; drop them.
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed mail envelope")
		return nil
	}

	ctx := msg.Context()
	if id := msg.Metadata.Get("request_id"); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}

	email, err := d.renderer.Render(env)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("kind", string(env.Kind)).Msg("Dropping unrenderable email")
		return nil
	}

	err = d.transport.Send(ctx, email)
	metrics.RecordMailDelivery(string(env.Kind), err)
	if err != nil {
		return fmt.Errorf("deliver %s email via %s: %w", env.Kind, d.transport.Name(), err)
	}
	return nil
}

func (d *Dispatcher) handleDeadLetter(msg *message.Message) error {
	env, _ := decodeEnvelope(msg.Payload)
	logging.Warn().
		Str("message_uuid", msg.UUID).
		Str("kind", string(env.Kind)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Email moved to dead letter topic")
	metrics.MailDelivered.WithLabelValues(string(env.Kind), "dead_letter").Inc()
	return nil
}
