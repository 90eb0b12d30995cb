package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "build_status", "reload")
	Type    string          `json:"type"`    // Event type (e.g., "building", "succeeded", "failed")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// BuildStatus represents the state of the current or last pipeline run
type BuildStatus struct {
	State    string `json:"state"`   // building, succeeded, failed
	Message  string `json:"message"` // Human-readable status message
	RunID    string `json:"run_id"`  // Pipeline run identifier
	ExitCode int    `json:"exit_code"`
}

// ReloadData tells live-reload clients to refresh after a successful rebuild
type ReloadData struct {
	RunID      string `json:"run_id"`
	DurationMs int64  `json:"duration_ms"`
}
