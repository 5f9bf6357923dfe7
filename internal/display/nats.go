/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package display

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Defaults for the NATS mirror.
const (
	DefaultNATSURL     = nats.DefaultURL
	DefaultNATSSubject = "routeboard.display"
)

// MirrorMessage is the payload published for every display operation.
type MirrorMessage struct {
	Action string    `json:"action"` // write, power_on, power_off
	Text   string    `json:"text,omitempty"`
	Init   bool      `json:"init,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

// publisher is the subset of *nats.Conn the mirror needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSMirror publishes display operations to a NATS subject so a remote
// panel process can render them.
type NATSMirror struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	now     func() time.Time
	logger  zerolog.Logger
}

// DialNATSMirror connects to url and publishes on subject.
func DialNATSMirror(url, subject string, logger zerolog.Logger) (*NATSMirror, error) {
	if url == "" {
		url = DefaultNATSURL
	}
	if subject == "" {
		subject = DefaultNATSSubject
	}

	logger = logger.With().Str("component", "display").Str("driver", DriverNATS).Logger()
	nc, err := nats.Connect(url,
		nats.Name("routeboard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	m := newNATSMirror(nc, subject, logger)
	m.conn = nc
	return m, nil
}

func newNATSMirror(pub publisher, subject string, logger zerolog.Logger) *NATSMirror {
	return &NATSMirror{
		pub:     pub,
		subject: subject,
		now:     time.Now,
		logger:  logger,
	}
}

// Write publishes text as a write message.
func (m *NATSMirror) Write(ctx context.Context, text string) error {
	if err := m.publish(MirrorMessage{Action: "write", Text: text}); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// PowerOn publishes a power_on message.
func (m *NATSMirror) PowerOn(ctx context.Context, init bool) error {
	return m.publish(MirrorMessage{Action: "power_on", Init: init})
}

// PowerOff publishes a power_off message.
func (m *NATSMirror) PowerOff(ctx context.Context) error {
	return m.publish(MirrorMessage{Action: "power_off"})
}

// Close flushes pending messages and closes the connection.
func (m *NATSMirror) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Drain()
}

func (m *NATSMirror) publish(msg MirrorMessage) error {
	msg.SentAt = m.now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mirror message: %w", err)
	}
	if err := m.pub.Publish(m.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", m.subject, err)
	}
	m.logger.Debug().Str("subject", m.subject).Str("action", msg.Action).Msg("published display message")
	return nil
}
