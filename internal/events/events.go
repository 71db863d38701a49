// Package events publishes post-submission notifications so downstream
// consumers (dashboard refreshers, alerting) can react to newly ingested
// datasets without polling.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subject and stream names shared with downstream consumers.
const (
	SubjectDatasetIngested = "contribute.dataset.ingested"
	StreamName             = "CONTRIBUTE"
)

// IngestedEvent describes one successfully submitted dataset.
type IngestedEvent struct {
	DatasetID    string    `json:"dataset_id"`
	Title        string    `json:"title"`
	Observations int       `json:"observations"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// Publisher is the notification contract. Publish failures must never fail a
// submission; callers log and move on.
type Publisher interface {
	DatasetIngested(event IngestedEvent) error
}

// NoopPublisher is used when no NATS server is configured.
type NoopPublisher struct{}

// DatasetIngested logs the event and drops it.
func (NoopPublisher) DatasetIngested(event IngestedEvent) error {
	log.Printf("Events: no publisher configured, dropping ingested event for dataset %s", event.DatasetID)
	return nil
}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	js nats.JetStreamContext
}

// NewNATSPublisher connects to NATS, ensures the CONTRIBUTE stream exists
// (idempotent), and returns a publisher.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(3*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(StreamName); err != nil {
		log.Printf("Events: stream %s not found, creating it for subject contribute.>", StreamName)
		if _, createErr := js.AddStream(&nats.StreamConfig{
			Name:     StreamName,
			Subjects: []string{"contribute.>"},
			Storage:  nats.FileStorage,
		}); createErr != nil {
			return nil, fmt.Errorf("failed to create NATS stream %s: %w", StreamName, createErr)
		}
	}

	log.Printf("Events: connected to NATS at %s", url)
	return &NATSPublisher{js: js}, nil
}

// DatasetIngested publishes the event on the ingested subject.
func (p *NATSPublisher) DatasetIngested(event IngestedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ingested event: %w", err)
	}
	if _, err := p.js.Publish(SubjectDatasetIngested, payload); err != nil {
		return fmt.Errorf("failed to publish ingested event for dataset %s: %w", event.DatasetID, err)
	}
	return nil
}
