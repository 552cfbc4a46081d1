// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/cycles/internal/logging"
)

// MailDispatcher is satisfied by *mail.Dispatcher.
type MailDispatcher interface {
	Run(ctx context.Context) error
	Close() error
}

// MailDispatcherFactory builds a dispatcher for one run.
type MailDispatcherFactory func() (MailDispatcher, error)

// MailDispatcherService consumes the mail outbox under supervision.
type MailDispatcherService struct {
	factory MailDispatcherFactory
	name    string
}

// NewMailDispatcherService wraps factory. It is called on every start.
func NewMailDispatcherService(factory MailDispatcherFactory) *MailDispatcherService {
	return &MailDispatcherService{
		factory: factory,
		name:    "mail-dispatcher",
	}
}

// Serve implements suture.Service.
func (m *MailDispatcherService) Serve(ctx context.Context) error {
	dispatcher, err := m.factory()
	if err != nil {
		return fmt.Errorf("build mail dispatcher: %w", err)
	}
	defer func() {
		if cerr := dispatcher.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close mail dispatcher")
		}
	}()

	runErr := dispatcher.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("mail dispatcher failed: %w", runErr)
	}
	return errors.New("mail dispatcher stopped unexpectedly")
}

func (m *MailDispatcherService) String() string {
	return m.name
}
