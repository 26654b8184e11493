package models

import (
	"encoding/json"
	"time"
)

// StepStatus is the lifecycle status of a workflow step.
type StepStatus string

const (
	StepStatusPending          StepStatus = "pending"
	StepStatusInProgress       StepStatus = "in_progress"
	StepStatusCompleted        StepStatus = "completed"
	StepStatusFailed           StepStatus = "failed"
	StepStatusRequiresApproval StepStatus = "requires_approval"
	StepStatusApproved         StepStatus = "approved"
	StepStatusRejected         StepStatus = "rejected"
)

// Terminal reports whether the status accepts no further transitions.
func (s StepStatus) Terminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusRejected:
		return true
	default:
		return false
	}
}

// StepComment is one entry of a step's append-only comment log.
type StepComment struct {
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// WorkflowStep is one auditable unit of asynchronous work: a tool call or an
// approval gate. Request and response snapshots are stored verbatim for audit
// and replay.
type WorkflowStep struct {
	StepID           string          `json:"step_id"`
	TenantID         string          `json:"tenant_id"    validate:"required"`
	PrincipalID      string          `json:"principal_id"`
	StepType         string          `json:"step_type" validate:"required"`
	ToolName         string          `json:"tool_name"`
	Status           StepStatus      `json:"status"`
	RequestSnapshot  json.RawMessage `json:"request_snapshot,omitempty"`
	ResponseSnapshot json.RawMessage `json:"response_snapshot,omitempty"`
	Error            string          `json:"error,omitempty"`
	Comments         []StepComment   `json:"comments,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ObjectWorkflowMapping links a workflow step to a domain object with an
// action tag. The mappings for an object form the audit trail of every action
// taken against it over its lifetime.
type ObjectWorkflowMapping struct {
	MappingID  string    `json:"mapping_id"`
	StepID     string    `json:"step_id"     validate:"required"`
	ObjectType string    `json:"object_type" validate:"required"`
	ObjectID   string    `json:"object_id"   validate:"required"`
	Action     string    `json:"action"      validate:"required"`
	CreatedAt  time.Time `json:"created_at"`
}
