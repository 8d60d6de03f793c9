/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus fans deepcrate events out across processes over NATS.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "deepcrate.events."

// NATSBus publishes events to NATS and delivers events from other nodes to
// local subscribers. Local delivery always goes through an in-memory bus, so
// the bus keeps working when NATS is unreachable.
type NATSBus struct {
	logger   zerolog.Logger
	conn     *nats.Conn
	fallback *events.Bus
	nodeID   string

	mu   sync.Mutex
	subs map[events.EventType]*nats.Subscription
}

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL   string
	Token string
	Name  string

	// Connection options
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "deepcrate",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NewNATSBus creates a NATS-backed event bus. An empty URL or a failed
// connection leaves the bus in process only.
func NewNATSBus(cfg NATSConfig, logger zerolog.Logger) *NATSBus {
	nb := &NATSBus{
		logger:   logger.With().Str("component", "eventbus").Logger(),
		fallback: events.NewBus(),
		nodeID:   generateNodeID(),
		subs:     make(map[events.EventType]*nats.Subscription),
	}

	if cfg.URL == "" {
		nb.logger.Debug().Msg("no NATS URL configured, events stay in process")
		return nb
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			nb.logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			nb.logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		nb.logger.Warn().Err(err).Str("url", cfg.URL).Msg("NATS connection failed, using in-memory event bus")
		return nb
	}

	nb.conn = conn
	nb.logger.Info().Str("url", cfg.URL).Str("node_id", nb.nodeID).Msg("NATS event bus initialized")
	return nb
}

// Connected reports whether events leave the process.
func (nb *NATSBus) Connected() bool {
	return nb.conn != nil && nb.conn.IsConnected()
}

// Subscribe registers a subscriber for an event type. The first local
// subscriber of a type opens the NATS subscription for it.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	sub := nb.fallback.Subscribe(eventType)

	if nb.conn == nil {
		return sub
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if _, ok := nb.subs[eventType]; ok {
		return sub
	}

	ns, err := nb.conn.Subscribe(Subject(eventType), func(msg *nats.Msg) {
		nb.deliver(eventType, msg.Data)
	})
	if err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("NATS subscribe failed")
		return sub
	}
	nb.subs[eventType] = ns
	return sub
}

// deliver hands a message from another node to local subscribers.
func (nb *NATSBus) deliver(eventType events.EventType, data []byte) bool {
	msg, err := unmarshalMessage(data)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to unmarshal NATS message")
		return false
	}

	// Skip messages from ourselves (prevent echo)
	if msg.NodeID == nb.nodeID {
		return false
	}

	nb.fallback.Publish(eventType, msg.Payload)
	nb.logger.Debug().
		Str("event_type", string(eventType)).
		Str("source_node", msg.NodeID).
		Msg("delivered NATS event to local subscribers")
	return true
}

// Publish sends an event payload to local subscribers and, when connected,
// to NATS.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.fallback.Publish(eventType, payload)
	telemetry.EventsPublishedTotal.WithLabelValues(string(eventType), "local").Inc()

	if nb.conn == nil {
		return
	}

	data, err := marshalMessage(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal NATS message")
		return
	}

	if err := nb.conn.Publish(Subject(eventType), data); err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
		return
	}
	telemetry.EventsPublishedTotal.WithLabelValues(string(eventType), "nats").Inc()
}

// Unsubscribe removes a subscriber. The NATS subscription stays open until
// Close.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.fallback.Unsubscribe(eventType, sub)
}

// Close drains the NATS connection.
func (nb *NATSBus) Close() error {
	nb.mu.Lock()
	for eventType, sub := range nb.subs {
		if err := sub.Unsubscribe(); err != nil {
			nb.logger.Debug().Err(err).Str("event_type", string(eventType)).Msg("NATS unsubscribe failed")
		}
	}
	nb.subs = make(map[events.EventType]*nats.Subscription)
	nb.mu.Unlock()

	if nb.conn == nil {
		return nil
	}
	if err := nb.conn.Drain(); err != nil {
		nb.conn.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	nb.logger.Info().Msg("NATS event bus closed")
	return nil
}

// Subject is the NATS subject for an event type.
func Subject(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

// message is the envelope published to NATS.
type message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(message{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	})
}

func unmarshalMessage(data []byte) (*message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal nats message: %w", err)
	}
	return &msg, nil
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "deepcrate"
	}
	return host + "-" + uuid.NewString()[:8]
}
