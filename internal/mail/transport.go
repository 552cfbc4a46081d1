// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
)

// Transport hands a rendered email to the outside world.
type Transport interface {
	Send(ctx context.Context, email *Email) error
	Name() string
}

// NewTransport returns an SMTP transport when a host is configured and a
// LogTransport otherwise.
func NewTransport(cfg config.MailConfig) (Transport, error) {
	if cfg.SMTPHost == "" {
		return NewLogTransport(), nil
	}
	return NewSMTPTransport(cfg)
}

// LogTransport writes emails to the log instead of sending them.
type LogTransport struct{}

// NewLogTransport creates a LogTransport.
func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

// Name returns the transport identifier.
func (t *LogTransport) Name() string { return "log" }

// Send logs the recipient, subject and link.
func (t *LogTransport) Send(ctx context.Context, email *Email) error {
	event := logging.Ctx(ctx).Info().
		Str("kind", string(email.Kind)).
		Str("to", email.To).
		Str("subject", email.Subject)
	if email.Link != "" {
		event = event.Str("link", email.Link)
	}
	event.Msg("Email sent")
	return nil
}

// SMTPTransport sends mail through an SMTP relay.
type SMTPTransport struct {
	addr     string
	host     string
	from     string
	fromAddr string
	auth     smtp.Auth
	timeout  time.Duration
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPTransport validates cfg and creates an SMTPTransport.
func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_FROM %q: %w", cfg.From, err)
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	t := &SMTPTransport{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(port)),
		host:     cfg.SMTPHost,
		from:     from.String(),
		fromAddr: from.Address,
		timeout:  30 * time.Second,
		send:     smtp.SendMail,
	}
	if cfg.SMTPUsername != "" {
		t.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return t, nil
}

// Name returns the transport identifier.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send delivers email. net/smtp has no context support, so the send runs in
// a goroutine bounded by the transport timeout and ctx.
func (t *SMTPTransport) Send(ctx context.Context, email *Email) error {
	to, err := netmail.ParseAddress(email.To)
	if err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg := t.buildMessage(email, to.Address)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- t.send(t.addr, t.auth, t.fromAddr, []string{to.Address}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", t.addr, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", t.addr, errors.Join(ErrSendTimeout, ctx.Err()))
	}
}

// ErrSendTimeout is returned when the relay does not answer in time.
var ErrSendTimeout = errors.New("smtp send timed out")

func (t *SMTPTransport) buildMessage(email *Email, to string) []byte {
	var msg strings.Builder
	boundary := fmt.Sprintf("cycles_%d", time.Now().UnixNano())

	fmt.Fprintf(&msg, "From: %s\r\n", t.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.BodyText)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.BodyHTML)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return []byte(msg.String())
}
