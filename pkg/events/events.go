// Package events defines event types for workflow version lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topic carrying version lifecycle events.
const Topic = "convopilot.versions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	VersionCreatedEvent    EventType = "version.created"
	VersionActivatedEvent  EventType = "version.activated"
	VersionRolledBackEvent EventType = "version.rolled_back"
	VersionArchivedEvent   EventType = "version.archived"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	BotID     string         `json:"bot_id"`
	Version   int            `json:"version"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func newBaseEvent(eventType EventType, botID string, version int) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		BotID:     botID,
		Version:   version,
	}
}

// VersionCreated signals a new draft version was compiled and stored.
type VersionCreated struct {
	BaseEvent

	NodeCount int `json:"node_count"`
}

func NewVersionCreated(botID string, version, nodeCount int) VersionCreated {
	return VersionCreated{
		BaseEvent: newBaseEvent(VersionCreatedEvent, botID, version),
		NodeCount: nodeCount,
	}
}

func (e VersionCreated) GetType() EventType {
	return e.Type
}

// VersionActivated signals a version became the bot's live version.
type VersionActivated struct {
	BaseEvent

	PreviousVersion int `json:"previous_version,omitempty"`
}

func NewVersionActivated(botID string, version, previousVersion int) VersionActivated {
	return VersionActivated{
		BaseEvent:       newBaseEvent(VersionActivatedEvent, botID, version),
		PreviousVersion: previousVersion,
	}
}

func (e VersionActivated) GetType() EventType {
	return e.Type
}

// VersionRolledBack signals a previously active version was restored. The
// mechanics match activation; the distinct type records the operator intent
// for auditing.
type VersionRolledBack struct {
	BaseEvent

	ReplacedVersion int `json:"replaced_version,omitempty"`
}

func NewVersionRolledBack(botID string, version, replacedVersion int) VersionRolledBack {
	return VersionRolledBack{
		BaseEvent:       newBaseEvent(VersionRolledBackEvent, botID, version),
		ReplacedVersion: replacedVersion,
	}
}

func (e VersionRolledBack) GetType() EventType {
	return e.Type
}

// VersionArchived signals a version left the rollback candidate set.
type VersionArchived struct {
	BaseEvent
}

func NewVersionArchived(botID string, version int) VersionArchived {
	return VersionArchived{
		BaseEvent: newBaseEvent(VersionArchivedEvent, botID, version),
	}
}

func (e VersionArchived) GetType() EventType {
	return e.Type
}
