// Package events defines event types for workflow editor lifecycle
// notifications, consumed by other CRM modules (audit log, activity
// feed, enrollment engine bootstrap).
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "cornerstone.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent    EventType = "workflow.created"
	WorkflowUpdatedEvent    EventType = "workflow.updated"
	WorkflowGraphSavedEvent EventType = "workflow.graph.saved"
	WorkflowActivatedEvent  EventType = "workflow.activated"
	WorkflowPausedEvent     EventType = "workflow.paused"
	WorkflowArchivedEvent   EventType = "workflow.archived"
	WorkflowDeletedEvent    EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowUpdated struct {
	BaseEvent

	Name string `json:"name"`
}

func (w WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowGraphSaved struct {
	BaseEvent

	TriggerType string `json:"trigger_type"`
	StepCount   int    `json:"step_count"`
}

func (w WorkflowGraphSaved) GetType() EventType {
	return WorkflowGraphSavedEvent
}

type WorkflowActivated struct {
	BaseEvent

	PreviousStatus models.WorkflowStatus `json:"previous_status"`
}

func (w WorkflowActivated) GetType() EventType {
	return WorkflowActivatedEvent
}

type WorkflowPaused struct {
	BaseEvent
}

func (w WorkflowPaused) GetType() EventType {
	return WorkflowPausedEvent
}

type WorkflowArchived struct {
	BaseEvent

	PreviousStatus models.WorkflowStatus `json:"previous_status"`
}

func (w WorkflowArchived) GetType() EventType {
	return WorkflowArchivedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}
