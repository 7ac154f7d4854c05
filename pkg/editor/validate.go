package editor

import (
	"strings"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// WorkflowErrorKey is the error-map key for graph-wide problems, as
// opposed to per-node keys.
const WorkflowErrorKey = "workflow"

// Validation messages surfaced inline by the canvas layer.
const (
	msgNameRequired     = "workflow name is required"
	msgTriggerRequired  = "a trigger is required"
	msgSingleTriggerMax = "only one trigger is allowed"
	msgNotConnected     = "node is not connected"
)

// ValidationResult is the outcome of a structural graph check: a boolean
// verdict plus errors keyed by node id, or by WorkflowErrorKey for
// graph-wide problems.
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
}

// Validate checks the structural export invariants: a non-empty name,
// exactly one trigger node, and an incoming edge on every non-trigger
// node. It is a connectivity check only: cycles are legal, a branch may
// loop back to an earlier step.
func (s *Session) Validate() ValidationResult {
	errs := make(map[string][]string)

	if strings.TrimSpace(s.name) == "" {
		errs[WorkflowErrorKey] = append(errs[WorkflowErrorKey], msgNameRequired)
	}

	triggers := 0

	for _, id := range s.nodeOrder {
		if s.nodes[id].IsTrigger() {
			triggers++
		}
	}

	switch {
	case triggers == 0:
		errs[WorkflowErrorKey] = append(errs[WorkflowErrorKey], msgTriggerRequired)
	case triggers > 1:
		errs[WorkflowErrorKey] = append(errs[WorkflowErrorKey], msgSingleTriggerMax)
	}

	connected := make(map[string]bool, len(s.edges))
	for _, edge := range s.edges {
		connected[edge.TargetNodeID] = true
	}

	for _, id := range s.nodeOrder {
		node := s.nodes[id]
		if node.Kind == models.NodeKindTrigger {
			continue
		}

		if !connected[id] {
			errs[id] = append(errs[id], msgNotConnected)
		}
	}

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
