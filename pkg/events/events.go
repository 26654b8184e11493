// Package events defines event types for media buy lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topic carrying media buy lifecycle events.
const Topic = "buyflow.media_buys"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	MediaBuyCreatedEvent         EventType = "media_buy.created"
	MediaBuyPendingApprovalEvent EventType = "media_buy.pending_approval"
	MediaBuyApprovedEvent        EventType = "media_buy.approved"
	MediaBuyRejectedEvent        EventType = "media_buy.rejected"
	MediaBuyFailedEvent          EventType = "media_buy.failed"
	MediaBuyUpdatedEvent         EventType = "media_buy.updated"
	WorkflowStepCompletedEvent   EventType = "workflow_step.completed"
)

// BaseEvent carries the fields shared by every media buy event.
type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	TenantID   string         `json:"tenant_id"`
	MediaBuyID string         `json:"media_buy_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a BaseEvent for the given type and media buy.
func NewBaseEvent(eventType EventType, tenantID, mediaBuyID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		TenantID:   tenantID,
		MediaBuyID: mediaBuyID,
	}
}

// MediaBuyCreated is emitted after a buy is accepted and reconciled.
type MediaBuyCreated struct {
	BaseEvent

	BuyerRef   string   `json:"buyer_ref"`
	ExternalID string   `json:"external_id"`
	PackageIDs []string `json:"package_ids"`
}

func (e MediaBuyCreated) GetType() EventType {
	return MediaBuyCreatedEvent
}

// MediaBuyPendingApproval is emitted when a buy is parked for human review.
type MediaBuyPendingApproval struct {
	BaseEvent

	BuyerRef string `json:"buyer_ref"`
	StepID   string `json:"step_id"`
}

func (e MediaBuyPendingApproval) GetType() EventType {
	return MediaBuyPendingApprovalEvent
}

// MediaBuyApproved is emitted when a human approves a parked buy and dispatch
// succeeds.
type MediaBuyApproved struct {
	BaseEvent

	StepID     string `json:"step_id"`
	ApprovedBy string `json:"approved_by"`
	ExternalID string `json:"external_id"`
}

func (e MediaBuyApproved) GetType() EventType {
	return MediaBuyApprovedEvent
}

// MediaBuyRejected is emitted when a human rejects a parked buy.
type MediaBuyRejected struct {
	BaseEvent

	StepID     string `json:"step_id"`
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason,omitempty"`
}

func (e MediaBuyRejected) GetType() EventType {
	return MediaBuyRejectedEvent
}

// MediaBuyFailed is emitted when dispatch or reconciliation fails.
type MediaBuyFailed struct {
	BaseEvent

	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

func (e MediaBuyFailed) GetType() EventType {
	return MediaBuyFailedEvent
}

// MediaBuyUpdated is emitted after an update is applied.
type MediaBuyUpdated struct {
	BaseEvent

	AffectedPackages []string `json:"affected_packages,omitempty"`
	Changes          []string `json:"changes,omitempty"`
}

func (e MediaBuyUpdated) GetType() EventType {
	return MediaBuyUpdatedEvent
}

// WorkflowStepCompleted is emitted when a step reaches a terminal status.
type WorkflowStepCompleted struct {
	BaseEvent

	StepID string `json:"step_id"`
	Status string `json:"status"`
}

func (e WorkflowStepCompleted) GetType() EventType {
	return WorkflowStepCompletedEvent
}
