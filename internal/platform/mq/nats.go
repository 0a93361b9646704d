// Package mq fans gameplay events out to NATS.
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close()
}

type natsPublisher struct {
	conn *nats.Conn
}

// NewPublisher connects with unlimited reconnects. Publishes made while
// disconnected are buffered by the client and flushed on reconnect.
func NewPublisher(url string, logger zerolog.Logger) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("skyisle"),
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
	return &natsPublisher{conn: conn}, nil
}

func (n *natsPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (n *natsPublisher) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}

type noopPublisher struct{}

// NewNoopPublisher drops every message. Used when NATS is unavailable.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (noopPublisher) Close()                                        {}
