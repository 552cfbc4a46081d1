// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package mail

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind identifies an account email.
type Kind string

const (
	KindVerification Kind = "verification"
	KindWelcome      Kind = "welcome"
)

// Outbox topics.
const (
	TopicVerification = "mail.verification"
	TopicWelcome      = "mail.welcome"
	TopicDeadLetter   = "mail.dead_letter"
)

// Envelope is the queued form of an email. Bodies are rendered on delivery.
type Envelope struct {
	Kind  Kind   `json:"kind"`
	To    string `json:"to"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// Topic returns the outbox topic for the envelope kind.
func (e Envelope) Topic() (string, error) {
	switch e.Kind {
	case KindVerification:
		return TopicVerification, nil
	case KindWelcome:
		return TopicWelcome, nil
	default:
		return "", fmt.Errorf("unknown mail kind %q", e.Kind)
	}
}

func (e Envelope) validate() error {
	if e.To == "" {
		return fmt.Errorf("mail envelope has no recipient")
	}
	if e.Kind == KindVerification && e.Token == "" {
		return fmt.Errorf("verification envelope has no token")
	}
	return nil
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode mail envelope: %w", err)
	}
	return e, e.validate()
}
