// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package mail

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
)

// NewPubSub creates the in-process channel shared by the Outbox and the
// Dispatcher. Publishing never waits for the consumer.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logging.NewSlogLogger()),
	)
}

// Outbox queues account emails for asynchronous delivery.
type Outbox struct {
	publisher message.Publisher
}

// NewOutbox creates an Outbox publishing to publisher.
func NewOutbox(publisher message.Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

// QueueVerification queues the verification link email.
func (o *Outbox) QueueVerification(ctx context.Context, email, name, token string) error {
	return o.publish(ctx, Envelope{Kind: KindVerification, To: email, Name: name, Token: token})
}

// QueueWelcome queues the post-verification welcome email.
func (o *Outbox) QueueWelcome(ctx context.Context, email, name string) error {
	return o.publish(ctx, Envelope{Kind: KindWelcome, To: email, Name: name})
}

func (o *Outbox) publish(ctx context.Context, env Envelope) error {
	if err := env.validate(); err != nil {
		return err
	}
	topic, err := env.Topic()
	if err != nil {
		return err
	}
	payload, err := encodeEnvelope(env)
	if err != nil {
		return fmt.Errorf("encode mail envelope: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	if err := o.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.MailPublished.WithLabelValues(string(env.Kind)).Inc()
	return nil
}
