// Package models defines the core domain models for CRM workflow automation.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never enrolled anyone
	WorkflowStatusActive   WorkflowStatus = "active"   // Enrolling and executing
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Enrollment suspended
	WorkflowStatusArchived WorkflowStatus = "archived" // Read-only, kept for history
)

// WorkflowSettings carries enrollment and timing policy. The editor treats
// it as opaque beyond round-tripping it with the definition.
type WorkflowSettings struct {
	AllowReenrollment bool   `json:"allow_reenrollment"`
	EnrollmentLimit   int    `json:"enrollment_limit,omitempty"`
	Timezone          string `json:"timezone,omitempty"`
	QuietHoursStart   string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd     string `json:"quiet_hours_end,omitempty"`
}

// TriggerSpec is the single entry point of a workflow definition.
type TriggerSpec struct {
	Type   string     `json:"type"   validate:"required"`
	Config NodeConfig `json:"config,omitempty"`
}

// UnmarshalJSON decodes the config payload into its typed variant based
// on the trigger type tag.
func (t *TriggerSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   string          `json:"type"`
		Config json.RawMessage `json:"config"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Type = raw.Type

	if len(raw.Config) == 0 {
		t.Config = nil

		return nil
	}

	config, err := DecodeConfig(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("failed to decode trigger config: %w", err)
	}

	t.Config = config

	return nil
}

// StepBranch is a named exit of a branching step, carrying its own
// successor pointer.
type StepBranch struct {
	ID         string  `json:"id"   validate:"required"`
	Name       string  `json:"name" validate:"required"`
	NextStepID *string `json:"next_step_id,omitempty"`
}

// WorkflowStep is one executable step of a persisted definition. A step is
// either linear (NextStepID, possibly nil for terminal steps) or branching
// (Branches), never both.
type WorkflowStep struct {
	ID         string       `json:"id"   validate:"required"`
	Type       string       `json:"type" validate:"required"`
	Name       string       `json:"name"`
	Config     NodeConfig   `json:"config,omitempty"`
	Position   *Position    `json:"position,omitempty"`
	NextStepID *string      `json:"next_step_id,omitempty"`
	Branches   []StepBranch `json:"branches,omitempty"`
}

// UnmarshalJSON decodes the config payload into its typed variant based
// on the step type tag.
func (s *WorkflowStep) UnmarshalJSON(data []byte) error {
	type alias WorkflowStep

	var raw struct {
		alias

		Config json.RawMessage `json:"config"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = WorkflowStep(raw.alias)

	if len(raw.Config) == 0 {
		s.Config = nil

		return nil
	}

	config, err := DecodeConfig(s.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("failed to decode config for step %s: %w", s.ID, err)
	}

	s.Config = config

	return nil
}

// WorkflowDefinition is the persisted and executable form of a workflow:
// one trigger plus an ordered list of steps with explicit successor and
// branch pointers. It is both the storage format and the wire format.
type WorkflowDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"   validate:"required,min=1"`
	Description string           `json:"description"`
	Status      WorkflowStatus   `json:"status" validate:"required"`
	Trigger     TriggerSpec      `json:"trigger"`
	Steps       []*WorkflowStep  `json:"steps"`
	Settings    WorkflowSettings `json:"settings"`
	Owner       string           `json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}

// ValidStatus reports whether s is one of the known workflow statuses.
func ValidStatus(s WorkflowStatus) bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusArchived:
		return true
	default:
		return false
	}
}
