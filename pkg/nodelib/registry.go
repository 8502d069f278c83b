package nodelib

import (
	"fmt"
	"log/slog"
	"sort"
)

// Registry maps blueprint node types to their templates. Resolution is keyed
// only on the node type.
type Registry struct {
	logger    *slog.Logger
	templates map[string]*NodeTemplate
}

// NewRegistry creates an empty template registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		templates: make(map[string]*NodeTemplate),
	}
}

// Register adds a template to the registry, replacing any template already
// registered for the same type.
func (r *Registry) Register(template *NodeTemplate) {
	if _, exists := r.templates[template.Type]; exists {
		r.logger.Warn("Replacing node template", "type", template.Type)
	}

	r.templates[template.Type] = template
}

// Resolve returns the template for a node type, or ErrTemplateNotFound.
func (r *Registry) Resolve(nodeType string) (*NodeTemplate, error) {
	template, ok := r.templates[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q: %w", nodeType, ErrTemplateNotFound)
	}

	return template, nil
}

// Known reports whether a node type is in the library.
func (r *Registry) Known(nodeType string) bool {
	_, ok := r.templates[nodeType]

	return ok
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.templates))
	for nodeType := range r.templates {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// Templates returns the registered templates ordered by type name.
func (r *Registry) Templates() []*NodeTemplate {
	templates := make([]*NodeTemplate, 0, len(r.templates))
	for _, nodeType := range r.Types() {
		templates = append(templates, r.templates[nodeType])
	}

	return templates
}
