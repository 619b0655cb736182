// Package sink adapts the audit store contract onto external transports.
// Persistence and querying of audit events belong to a downstream system;
// this engine only emits.
package sink

import (
	"context"
	"encoding/json"
	"fmt"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/internal/platform/kafka/producer"
	"haven/pkg/platform/audit"
)

// Kafka publishes audit events to a Kafka topic, keyed by actor so one
// actor's trail stays ordered within a partition.
type Kafka struct {
	producer *producer.Producer
	topic    string
}

// NewKafka wraps an existing producer. The producer lifecycle belongs to the caller.
func NewKafka(prod *producer.Producer, topic string) *Kafka {
	return &Kafka{producer: prod, topic: topic}
}

// wireEvent is the serialized shape. Field names are part of the downstream
// contract; change them only with the audit consumers.
type wireEvent struct {
	Timestamp  string `json:"timestamp"`
	ActorID    string `json:"actor_id"`
	ClientID   string `json:"client_id,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	Action     string `json:"action"`
	Rule       string `json:"rule,omitempty"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Origin     string `json:"origin,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (k *Kafka) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(wireEvent{
		Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		ActorID:    event.ActorID.String(),
		ClientID:   omitNil(event.ClientID.IsNil(), event.ClientID.String()),
		ResourceID: omitNil(event.ResourceID.IsNil(), event.ResourceID.String()),
		Action:     event.Action,
		Rule:       event.Rule,
		Decision:   event.Decision,
		Reason:     event.Reason,
		SessionID:  event.SessionID,
		Origin:     event.Origin,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.ActorID.String()),
		Value: payload,
	})
}

// ListByActor is not supported: audit querying is owned by the downstream
// audit system, not this engine.
func (k *Kafka) ListByActor(context.Context, id.ActorID) ([]audit.Event, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "audit queries are served by the external audit system")
}

func omitNil(isNil bool, s string) string {
	if isNil {
		return ""
	}
	return s
}
