// internal/publish/nats.go
// Package: publish
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mwiater/lhmedian/internal/logging"
)

// natsConn is the part of *nats.Conn used here.
type natsConn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// streamPublisher is the part of nats.JetStreamContext used here.
type streamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSNotifier announces finished sessions on a subject.
type NATSNotifier struct {
	conn    natsConn
	js      streamPublisher
	subject string
}

// NATSConfig configures the notifier.
type NATSConfig struct {
	URL     string
	Subject string
	// JetStream publishes with acknowledgement instead of core NATS.
	JetStream bool
}

// NewNATSNotifier connects to the server.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	log := logging.New("nats")
	nc, err := nats.Connect(cfg.URL,
		nats.Name("lhmedian"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info("Connected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := &NATSNotifier{conn: nc, subject: cfg.Subject}
	if cfg.JetStream {
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}
		n.js = js
	}
	if msg := connectState(nc.Status()); msg != "" {
		log.Info(msg, "url", cfg.URL, "status", nc.Status().String())
	}
	return n, nil
}

// connectState describes the connection right after Connect. With retries
// on, Connect returns before the server is reached and ConnectHandler logs
// the connection once it exists.
func connectState(status nats.Status) string {
	switch status {
	case nats.CONNECTED:
		return "Connected to NATS"
	case nats.RECONNECTING, nats.CONNECTING, nats.DISCONNECTED:
		return "NATS not reachable yet, retrying in background"
	default:
		return ""
	}
}

func (n *NATSNotifier) Name() string { return "nats" }

// Publish sends the summary as JSON and waits for the server to see it.
func (n *NATSNotifier) Publish(ctx context.Context, s SessionSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if n.js != nil {
		if _, err := n.js.Publish(n.subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		return nil
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	return n.conn.FlushTimeout(timeout)
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
