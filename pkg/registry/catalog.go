package registry

import (
	"log/slog"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// NewDefaultRegistry returns a registry populated with every built-in
// trigger and step type.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	registerTriggers(r)
	registerSteps(r)

	return r
}

func registerTriggers(r *Registry) {
	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeTagAdded,
		Kind:        models.NodeKindTrigger,
		Label:       "Tag Added",
		Description: "Starts when a tag is applied to a contact",
		Schema: objectSchema(map[string]any{
			"tag_id": map[string]any{"type": "string", "minLength": 1},
		}, "tag_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeTagRemoved,
		Kind:        models.NodeKindTrigger,
		Label:       "Tag Removed",
		Description: "Starts when a tag is removed from a contact",
		Schema: objectSchema(map[string]any{
			"tag_id": map[string]any{"type": "string", "minLength": 1},
		}, "tag_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeContactCreated,
		Kind:        models.NodeKindTrigger,
		Label:       "Contact Created",
		Description: "Starts for every new contact",
		Schema: objectSchema(map[string]any{
			"source": map[string]any{"type": "string"},
		}),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeFormSubmitted,
		Kind:        models.NodeKindTrigger,
		Label:       "Form Submitted",
		Description: "Starts when a landing page form is submitted",
		Schema: objectSchema(map[string]any{
			"form_id": map[string]any{"type": "string", "minLength": 1},
		}, "form_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeDealStageChanged,
		Kind:        models.NodeKindTrigger,
		Label:       "Deal Stage Changed",
		Description: "Starts when a deal enters a pipeline stage",
		Schema: objectSchema(map[string]any{
			"pipeline_id": map[string]any{"type": "string", "minLength": 1},
			"stage_id":    map[string]any{"type": "string", "minLength": 1},
		}, "pipeline_id", "stage_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeAppointmentScheduled,
		Kind:        models.NodeKindTrigger,
		Label:       "Appointment Scheduled",
		Description: "Starts when an appointment is booked",
		Schema: objectSchema(map[string]any{
			"calendar_id": map[string]any{"type": "string"},
		}),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeSchedule,
		Kind:        models.NodeKindTrigger,
		Label:       "Schedule",
		Description: "Starts on a cron schedule",
		Schema: objectSchema(map[string]any{
			"cron": map[string]any{"type": "string", "minLength": 1},
		}, "cron"),
	})
}

func registerSteps(r *Registry) {
	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeSendEmail,
		Kind:        models.NodeKindAction,
		Label:       "Send Email",
		Description: "Sends a campaign email to the contact",
		Schema: objectSchema(map[string]any{
			"template_id": map[string]any{"type": "string", "minLength": 1},
			"subject":     map[string]any{"type": "string"},
			"from_name":   map[string]any{"type": "string"},
			"from_email":  map[string]any{"type": "string"},
		}, "template_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeAddTag,
		Kind:        models.NodeKindAction,
		Label:       "Add Tag",
		Description: "Applies a tag to the contact",
		Schema: objectSchema(map[string]any{
			"tag_id": map[string]any{"type": "string", "minLength": 1},
		}, "tag_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeRemoveTag,
		Kind:        models.NodeKindAction,
		Label:       "Remove Tag",
		Description: "Removes a tag from the contact",
		Schema: objectSchema(map[string]any{
			"tag_id": map[string]any{"type": "string", "minLength": 1},
		}, "tag_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeUpdateField,
		Kind:        models.NodeKindAction,
		Label:       "Update Field",
		Description: "Writes a value into a contact field",
		Schema: objectSchema(map[string]any{
			"field": map[string]any{"type": "string", "minLength": 1},
			"value": map[string]any{"type": "string"},
		}, "field"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeCreateDeal,
		Kind:        models.NodeKindAction,
		Label:       "Create Deal",
		Description: "Opens a deal in a pipeline for the contact",
		Schema: objectSchema(map[string]any{
			"pipeline_id": map[string]any{"type": "string", "minLength": 1},
			"stage_id":    map[string]any{"type": "string"},
			"name":        map[string]any{"type": "string"},
			"value":       map[string]any{"type": "integer", "minimum": 0},
		}, "pipeline_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeNotifyUser,
		Kind:        models.NodeKindAction,
		Label:       "Notify User",
		Description: "Sends an internal notification to a CRM user",
		Schema: objectSchema(map[string]any{
			"user_id": map[string]any{"type": "string", "minLength": 1},
			"message": map[string]any{"type": "string"},
		}, "user_id"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeWebhook,
		Kind:        models.NodeKindAction,
		Label:       "Webhook",
		Description: "Posts the enrollment payload to an external URL",
		Schema: objectSchema(map[string]any{
			"url":     map[string]any{"type": "string", "minLength": 1},
			"method":  map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			"headers": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
		}, "url"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeWait,
		Kind:        models.NodeKindWait,
		Label:       "Wait",
		Description: "Pauses the enrollment for a fixed duration",
		Schema: objectSchema(map[string]any{
			"duration": map[string]any{"type": "integer", "minimum": 1},
			"unit":     map[string]any{"type": "string", "enum": []any{"minutes", "hours", "days", "weeks"}},
		}, "duration", "unit"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeCondition,
		Kind:        models.NodeKindCondition,
		Label:       "Condition",
		Description: "Routes down a named branch based on an expression",
		Schema: objectSchema(map[string]any{
			"expression": map[string]any{"type": "string", "minLength": 1},
		}, "expression"),
	})

	mustRegister(r, &NodeDefinition{
		Type:        models.NodeTypeSplit,
		Kind:        models.NodeKindCondition,
		Label:       "A/B Split",
		Description: "Distributes enrollments across weighted paths",
		Schema: objectSchema(map[string]any{
			"paths": map[string]any{
				"type":     "array",
				"minItems": 2,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":     map[string]any{"type": "string", "minLength": 1},
						"weight": map[string]any{"type": "integer", "minimum": 1},
					},
					"required": []any{"id", "weight"},
				},
			},
		}, "paths"),
	})
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func mustRegister(r *Registry, def *NodeDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}
