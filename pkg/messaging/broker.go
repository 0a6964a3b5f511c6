package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher publishes a message, JSON encoded, on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Channels used by the API and the relay worker.
const (
	ChannelAgentInteractions = "healthtown:agent_interactions"
)
