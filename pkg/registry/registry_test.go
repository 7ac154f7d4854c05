package registry_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/registry"
)

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(slog.Default())

	err := reg.Register(&registry.NodeDefinition{
		Type:  "send_sms",
		Kind:  models.NodeKindAction,
		Label: "Send SMS",
	})
	require.NoError(t, err)

	def, ok := reg.Definition("send_sms")
	require.True(t, ok)
	assert.Equal(t, "Send SMS", def.Label)
}

func TestRegistry_Register_DuplicateType(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(slog.Default())

	require.NoError(t, reg.Register(&registry.NodeDefinition{Type: "send_sms", Kind: models.NodeKindAction}))
	require.Error(t, reg.Register(&registry.NodeDefinition{Type: "send_sms", Kind: models.NodeKindAction}))
}

func TestRegistry_KindAndLabelFallbacks(t *testing.T) {
	t.Parallel()

	reg := registry.NewDefaultRegistry(slog.Default())

	assert.Equal(t, models.NodeKindTrigger, reg.Kind(models.NodeTypeTagAdded))
	assert.Equal(t, models.NodeKindWait, reg.Kind(models.NodeTypeWait))
	assert.Equal(t, models.NodeKindCondition, reg.Kind(models.NodeTypeCondition))

	// Unknown types degrade to editable action nodes with the raw tag as label.
	assert.Equal(t, models.NodeKindAction, reg.Kind("retired_type"))
	assert.Equal(t, "retired_type", reg.Label("retired_type"))
}

func TestRegistry_ValidateConfig(t *testing.T) {
	t.Parallel()

	reg := registry.NewDefaultRegistry(slog.Default())

	require.NoError(t, reg.ValidateConfig(models.NodeTypeSendEmail, []byte(`{"template_id":"tpl-1"}`)))

	err := reg.ValidateConfig(models.NodeTypeSendEmail, []byte(`{"subject":"no template"}`))
	require.Error(t, err)

	err = reg.ValidateConfig("retired_type", []byte(`{}`))
	require.ErrorIs(t, err, registry.ErrUnknownNodeType)
}

func TestRegistry_ValidateConfig_WaitSchema(t *testing.T) {
	t.Parallel()

	reg := registry.NewDefaultRegistry(slog.Default())

	require.NoError(t, reg.ValidateConfig(models.NodeTypeWait, []byte(`{"duration":2,"unit":"days"}`)))
	require.Error(t, reg.ValidateConfig(models.NodeTypeWait, []byte(`{"duration":"two","unit":"days"}`)))
}

func TestNewDefaultRegistry_CoversAllBuiltinTypes(t *testing.T) {
	t.Parallel()

	reg := registry.NewDefaultRegistry(slog.Default())

	builtins := []string{
		models.NodeTypeTagAdded,
		models.NodeTypeTagRemoved,
		models.NodeTypeContactCreated,
		models.NodeTypeFormSubmitted,
		models.NodeTypeDealStageChanged,
		models.NodeTypeAppointmentScheduled,
		models.NodeTypeSchedule,
		models.NodeTypeSendEmail,
		models.NodeTypeAddTag,
		models.NodeTypeRemoveTag,
		models.NodeTypeUpdateField,
		models.NodeTypeCreateDeal,
		models.NodeTypeNotifyUser,
		models.NodeTypeWebhook,
		models.NodeTypeWait,
		models.NodeTypeCondition,
		models.NodeTypeSplit,
	}

	for _, nodeType := range builtins {
		_, ok := reg.Definition(nodeType)
		assert.True(t, ok, "missing definition for %s", nodeType)
	}

	assert.Len(t, reg.Definitions(), len(builtins))

	message, healthy := reg.HealthCheck()
	assert.True(t, healthy)
	assert.NotEmpty(t, message)
}
