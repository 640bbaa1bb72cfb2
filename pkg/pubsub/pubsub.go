package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the importer
const (
	// TopicImports carries one event per snapshot import
	TopicImports = "imports"
	// TopicScene announces that a new scene document was written
	TopicScene = "scene"
)

// Event types on TopicImports and TopicScene
const (
	EventImportCompleted = "import_completed"
	EventImportFailed    = "import_failed"
	EventSceneWritten    = "scene_written"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic, e.g. "imports"
	Type    string          `json:"type"`    // Event type, e.g. "import_completed"
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

// ImportStatus is the payload of TopicImports events
type ImportStatus struct {
	RunID     string   `json:"runId,omitempty"`
	Frame     int      `json:"frame"`
	NodesPath string   `json:"nodesPath"`
	EdgesPath string   `json:"edgesPath"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// SceneStatus is the payload of TopicScene events
type SceneStatus struct {
	Path      string `json:"path"`
	Objects   int    `json:"objects"`
	Materials int    `json:"materials"`
	Frames    []int  `json:"frames"`
}
