package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/editor"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/testutil"
)

func TestValidate_EmptySession(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)

	result := session.Validate()
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[editor.WorkflowErrorKey], "workflow name is required")
	assert.Contains(t, result.Errors[editor.WorkflowErrorKey], "a trigger is required")
}

func TestValidate_LinearGraph(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)
	session.SetName("Welcome Sequence")

	trigger := session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))
	step := session.AddNode(testutil.CreateTestNode())
	session.AddEdge(&models.Edge{SourceNodeID: trigger, TargetNodeID: step})

	result := session.Validate()
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_NameWhitespaceOnly(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)
	session.SetName("   ")
	session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))

	result := session.Validate()
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[editor.WorkflowErrorKey], "workflow name is required")
}

func TestValidate_MultipleTriggers(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)
	session.SetName("Doubled Up")
	session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))
	session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))

	result := session.Validate()
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[editor.WorkflowErrorKey], "only one trigger is allowed")
}

func TestValidate_DisconnectedNode(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)
	session.SetName("Orphans")

	trigger := session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))
	connected := session.AddNode(testutil.CreateTestNode())
	orphan := session.AddNode(testutil.CreateTestNode())
	session.AddEdge(&models.Edge{SourceNodeID: trigger, TargetNodeID: connected})

	result := session.Validate()
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[orphan], "node is not connected")
	assert.NotContains(t, result.Errors, connected)
	assert.NotContains(t, result.Errors, editor.WorkflowErrorKey)
}

func TestValidate_CyclesAreLegal(t *testing.T) {
	t.Parallel()

	session := editor.NewSession(nil)
	session.SetName("Repeat Until Reply")

	trigger := session.AddNode(testutil.CreateTestNode(testutil.WithTriggerNode()))
	check := session.AddNode(testutil.CreateTestNode(testutil.WithConditionNode("contact.replied")))
	wait := session.AddNode(testutil.CreateTestNode(
		testutil.WithType(models.NodeKindWait, models.NodeTypeWait),
		testutil.WithConfig(&models.WaitConfig{Duration: 2, Unit: models.WaitUnitDays}),
	))

	session.AddEdge(&models.Edge{SourceNodeID: trigger, TargetNodeID: check})
	session.AddEdge(&models.Edge{SourceNodeID: check, TargetNodeID: wait, SourceHandle: "no"})
	// The wait step loops back into the condition.
	session.AddEdge(&models.Edge{SourceNodeID: wait, TargetNodeID: check})

	result := session.Validate()
	assert.True(t, result.Valid)
}
