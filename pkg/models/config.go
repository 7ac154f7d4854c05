package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/robfig/cron/v3"
)

// Built-in trigger types.
const (
	NodeTypeTagAdded             = "tag_added"
	NodeTypeTagRemoved           = "tag_removed"
	NodeTypeContactCreated       = "contact_created"
	NodeTypeFormSubmitted        = "form_submitted"
	NodeTypeDealStageChanged     = "deal_stage_changed"
	NodeTypeAppointmentScheduled = "appointment_scheduled"
	NodeTypeSchedule             = "schedule"
)

// Built-in step types.
const (
	NodeTypeSendEmail   = "send_email"
	NodeTypeAddTag      = "add_tag"
	NodeTypeRemoveTag   = "remove_tag"
	NodeTypeUpdateField = "update_field"
	NodeTypeCreateDeal  = "create_deal"
	NodeTypeNotifyUser  = "notify_user"
	NodeTypeWebhook     = "webhook"
	NodeTypeWait        = "wait"
	NodeTypeCondition   = "condition"
	NodeTypeSplit       = "split"
)

// NodeConfig is the closed tagged union of step and trigger
// configurations. Each variant knows its own type tag and how to check
// its own well-formedness; everything else about a config is opaque to
// the editor.
type NodeConfig interface {
	NodeType() string
	Validate() error
}

// ErrUnknownNodeType is returned when a config payload carries a type tag
// no variant is registered for.
var ErrUnknownNodeType = errors.New("unknown node type")

// DecodeConfig turns a raw config payload into its typed variant,
// dispatching on the node type tag.
func DecodeConfig(nodeType string, raw json.RawMessage) (NodeConfig, error) {
	var config NodeConfig

	switch nodeType {
	case NodeTypeTagAdded:
		config = &TagAddedConfig{}
	case NodeTypeTagRemoved:
		config = &TagRemovedConfig{}
	case NodeTypeContactCreated:
		config = &ContactCreatedConfig{}
	case NodeTypeFormSubmitted:
		config = &FormSubmittedConfig{}
	case NodeTypeDealStageChanged:
		config = &DealStageChangedConfig{}
	case NodeTypeAppointmentScheduled:
		config = &AppointmentScheduledConfig{}
	case NodeTypeSchedule:
		config = &ScheduleConfig{}
	case NodeTypeSendEmail:
		config = &SendEmailConfig{}
	case NodeTypeAddTag:
		config = &AddTagConfig{}
	case NodeTypeRemoveTag:
		config = &RemoveTagConfig{}
	case NodeTypeUpdateField:
		config = &UpdateFieldConfig{}
	case NodeTypeCreateDeal:
		config = &CreateDealConfig{}
	case NodeTypeNotifyUser:
		config = &NotifyUserConfig{}
	case NodeTypeWebhook:
		config = &WebhookConfig{}
	case NodeTypeWait:
		config = &WaitConfig{}
	case NodeTypeCondition:
		config = &ConditionConfig{}
	case NodeTypeSplit:
		config = &SplitConfig{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s config: %w", nodeType, err)
	}

	return config, nil
}

// CloneConfig returns an independent deep copy of a config by
// round-tripping it through its JSON form. A nil config clones to nil.
func CloneConfig(config NodeConfig) (NodeConfig, error) {
	if config == nil {
		return nil, nil
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s config: %w", config.NodeType(), err)
	}

	return DecodeConfig(config.NodeType(), raw)
}

// Trigger configs.

// TagAddedConfig starts a workflow when a tag is applied to a contact.
type TagAddedConfig struct {
	TagID string `json:"tag_id"`
}

func (c *TagAddedConfig) NodeType() string { return NodeTypeTagAdded }

func (c *TagAddedConfig) Validate() error {
	if c.TagID == "" {
		return errors.New("tag_added trigger requires a tag_id")
	}

	return nil
}

// TagRemovedConfig starts a workflow when a tag is removed from a contact.
type TagRemovedConfig struct {
	TagID string `json:"tag_id"`
}

func (c *TagRemovedConfig) NodeType() string { return NodeTypeTagRemoved }

func (c *TagRemovedConfig) Validate() error {
	if c.TagID == "" {
		return errors.New("tag_removed trigger requires a tag_id")
	}

	return nil
}

// ContactCreatedConfig starts a workflow for every new contact,
// optionally filtered by source.
type ContactCreatedConfig struct {
	Source string `json:"source,omitempty"`
}

func (c *ContactCreatedConfig) NodeType() string { return NodeTypeContactCreated }

func (c *ContactCreatedConfig) Validate() error { return nil }

// FormSubmittedConfig starts a workflow when a specific form is submitted.
type FormSubmittedConfig struct {
	FormID string `json:"form_id"`
}

func (c *FormSubmittedConfig) NodeType() string { return NodeTypeFormSubmitted }

func (c *FormSubmittedConfig) Validate() error {
	if c.FormID == "" {
		return errors.New("form_submitted trigger requires a form_id")
	}

	return nil
}

// DealStageChangedConfig starts a workflow when a deal enters a pipeline
// stage.
type DealStageChangedConfig struct {
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
}

func (c *DealStageChangedConfig) NodeType() string { return NodeTypeDealStageChanged }

func (c *DealStageChangedConfig) Validate() error {
	if c.PipelineID == "" {
		return errors.New("deal_stage_changed trigger requires a pipeline_id")
	}

	if c.StageID == "" {
		return errors.New("deal_stage_changed trigger requires a stage_id")
	}

	return nil
}

// AppointmentScheduledConfig starts a workflow when an appointment is
// booked, optionally filtered by calendar.
type AppointmentScheduledConfig struct {
	CalendarID string `json:"calendar_id,omitempty"`
}

func (c *AppointmentScheduledConfig) NodeType() string { return NodeTypeAppointmentScheduled }

func (c *AppointmentScheduledConfig) Validate() error { return nil }

// ScheduleConfig starts a workflow on a cron schedule.
type ScheduleConfig struct {
	Cron string `json:"cron"`
}

func (c *ScheduleConfig) NodeType() string { return NodeTypeSchedule }

func (c *ScheduleConfig) Validate() error {
	if c.Cron == "" {
		return errors.New("schedule trigger requires a cron expression")
	}

	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

// Step configs.

// SendEmailConfig sends a campaign email to the enrolled contact.
type SendEmailConfig struct {
	TemplateID string `json:"template_id"`
	Subject    string `json:"subject,omitempty"`
	FromName   string `json:"from_name,omitempty"`
	FromEmail  string `json:"from_email,omitempty"`
}

func (c *SendEmailConfig) NodeType() string { return NodeTypeSendEmail }

func (c *SendEmailConfig) Validate() error {
	if c.TemplateID == "" {
		return errors.New("send_email step requires a template_id")
	}

	return nil
}

// AddTagConfig applies a tag to the enrolled contact.
type AddTagConfig struct {
	TagID string `json:"tag_id"`
}

func (c *AddTagConfig) NodeType() string { return NodeTypeAddTag }

func (c *AddTagConfig) Validate() error {
	if c.TagID == "" {
		return errors.New("add_tag step requires a tag_id")
	}

	return nil
}

// RemoveTagConfig removes a tag from the enrolled contact.
type RemoveTagConfig struct {
	TagID string `json:"tag_id"`
}

func (c *RemoveTagConfig) NodeType() string { return NodeTypeRemoveTag }

func (c *RemoveTagConfig) Validate() error {
	if c.TagID == "" {
		return errors.New("remove_tag step requires a tag_id")
	}

	return nil
}

// UpdateFieldConfig writes a value into a contact field.
type UpdateFieldConfig struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (c *UpdateFieldConfig) NodeType() string { return NodeTypeUpdateField }

func (c *UpdateFieldConfig) Validate() error {
	if c.Field == "" {
		return errors.New("update_field step requires a field")
	}

	return nil
}

// CreateDealConfig opens a deal in a pipeline for the enrolled contact.
type CreateDealConfig struct {
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
	Name       string `json:"name,omitempty"`
	Value      int64  `json:"value,omitempty"`
}

func (c *CreateDealConfig) NodeType() string { return NodeTypeCreateDeal }

func (c *CreateDealConfig) Validate() error {
	if c.PipelineID == "" {
		return errors.New("create_deal step requires a pipeline_id")
	}

	return nil
}

// NotifyUserConfig sends an internal notification to a CRM user.
type NotifyUserConfig struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

func (c *NotifyUserConfig) NodeType() string { return NodeTypeNotifyUser }

func (c *NotifyUserConfig) Validate() error {
	if c.UserID == "" {
		return errors.New("notify_user step requires a user_id")
	}

	return nil
}

// WebhookConfig posts the enrollment payload to an external URL.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (c *WebhookConfig) NodeType() string { return NodeTypeWebhook }

func (c *WebhookConfig) Validate() error {
	if c.URL == "" {
		return errors.New("webhook step requires a url")
	}

	return nil
}

// WaitUnit is the time unit of a wait step's duration.
type WaitUnit string

const (
	WaitUnitMinutes WaitUnit = "minutes"
	WaitUnitHours   WaitUnit = "hours"
	WaitUnitDays    WaitUnit = "days"
	WaitUnitWeeks   WaitUnit = "weeks"
)

// WaitConfig pauses the enrollment for a fixed duration.
type WaitConfig struct {
	Duration int      `json:"duration"`
	Unit     WaitUnit `json:"unit"`
}

func (c *WaitConfig) NodeType() string { return NodeTypeWait }

func (c *WaitConfig) Validate() error {
	if c.Duration <= 0 {
		return errors.New("wait step requires a positive duration")
	}

	switch c.Unit {
	case WaitUnitMinutes, WaitUnitHours, WaitUnitDays, WaitUnitWeeks:
		return nil
	default:
		return fmt.Errorf("invalid wait unit: %q", c.Unit)
	}
}

// ConditionConfig routes the enrollment down a named branch based on a
// boolean expression over the contact.
type ConditionConfig struct {
	Expression string `json:"expression"`
}

func (c *ConditionConfig) NodeType() string { return NodeTypeCondition }

func (c *ConditionConfig) Validate() error {
	if c.Expression == "" {
		return errors.New("condition step requires an expression")
	}

	if _, err := expr.Compile(c.Expression, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
		return fmt.Errorf("invalid condition expression: %w", err)
	}

	return nil
}

// SplitPath is one weighted path of a split step.
type SplitPath struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
}

// SplitConfig randomly distributes enrollments across weighted paths,
// used for A/B testing a flow.
type SplitConfig struct {
	Paths []SplitPath `json:"paths"`
}

func (c *SplitConfig) NodeType() string { return NodeTypeSplit }

func (c *SplitConfig) Validate() error {
	if len(c.Paths) < 2 {
		return errors.New("split step requires at least two paths")
	}

	total := 0

	for _, path := range c.Paths {
		if path.ID == "" {
			return errors.New("split path requires an id")
		}

		if path.Weight <= 0 {
			return fmt.Errorf("split path %s requires a positive weight", path.ID)
		}

		total += path.Weight
	}

	if total != 100 {
		return fmt.Errorf("split path weights must sum to 100, got %d", total)
	}

	return nil
}
