// Package registry is the catalog of workflow node types: for each
// trigger and step variant it holds the coarse kind, the display label,
// and a JSON schema for the config payload. The editor uses it for
// type-to-label and type-to-kind lookups on load; the API uses it to
// validate raw config payloads before they are decoded.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/models"
)

// ErrUnknownNodeType is returned when a lookup names a type that was
// never registered.
var ErrUnknownNodeType = errors.New("node type not registered")

// NodeDefinition describes one registered node type.
type NodeDefinition struct {
	Type        string          `json:"type"`
	Kind        models.NodeKind `json:"kind"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Schema      map[string]any  `json:"schema,omitempty"`

	compiled *gojsonschema.Schema
}

// Registry holds node definitions keyed by type.
type Registry struct {
	logger *slog.Logger
	defs   map[string]*NodeDefinition
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		defs:   make(map[string]*NodeDefinition),
	}
}

// Register adds a node definition, compiling its config schema. A nil
// Schema registers the type with no config validation.
func (r *Registry) Register(def *NodeDefinition) error {
	if def.Type == "" {
		return errors.New("node definition requires a type")
	}

	if _, exists := r.defs[def.Type]; exists {
		return fmt.Errorf("node type %q already registered", def.Type)
	}

	if def.Schema != nil {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Schema))
		if err != nil {
			return fmt.Errorf("failed to compile schema for %s: %w", def.Type, err)
		}

		def.compiled = compiled
	}

	r.defs[def.Type] = def
	r.order = append(r.order, def.Type)

	return nil
}

// Definition returns the registered definition for a type.
func (r *Registry) Definition(nodeType string) (*NodeDefinition, bool) {
	def, ok := r.defs[nodeType]

	return def, ok
}

// Definitions returns every registered definition in registration order.
func (r *Registry) Definitions() []*NodeDefinition {
	defs := make([]*NodeDefinition, 0, len(r.order))
	for _, nodeType := range r.order {
		defs = append(defs, r.defs[nodeType])
	}

	return defs
}

// Kind returns the coarse category for a node type, defaulting to action
// for unknown types so stale definitions still load as editable nodes.
func (r *Registry) Kind(nodeType string) models.NodeKind {
	if def, ok := r.defs[nodeType]; ok {
		return def.Kind
	}

	return models.NodeKindAction
}

// Label returns the display label for a node type, falling back to the
// raw type tag for unknown types.
func (r *Registry) Label(nodeType string) string {
	if def, ok := r.defs[nodeType]; ok {
		return def.Label
	}

	return nodeType
}

// ValidateConfig checks a raw config payload against the type's schema.
func (r *Registry) ValidateConfig(nodeType string, raw []byte) error {
	def, ok := r.defs[nodeType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	if def.compiled == nil {
		return nil
	}

	result, err := def.compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", nodeType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid %s config: %s", nodeType, strings.Join(details, "; "))
	}

	return nil
}

// HealthCheck reports whether the registry is populated.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.defs) == 0 {
		return "Node type registry is empty", false
	}

	return fmt.Sprintf("Node type registry is healthy (%d types)", len(r.defs)), true
}
