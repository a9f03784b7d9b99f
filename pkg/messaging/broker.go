package messaging

import (
	"context"
)

// Broker publishes events for real-time consumers. The jobs only publish;
// subscribers live in the web tier.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Channels
const (
	ChannelNotifications = "notifications"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NopBroker drops everything. Used when real-time fan-out is disabled.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, string, interface{}) error { return nil }

func (NopBroker) Close() error { return nil }
