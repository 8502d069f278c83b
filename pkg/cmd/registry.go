package cmd

import (
	"log/slog"
	"strings"

	"github.com/convopilot/convopilot/pkg/integrations"
	"github.com/convopilot/convopilot/pkg/nodelib"
)

// NewNodeRegistry creates the node template registry with the built-in node
// vocabulary registered.
func NewNodeRegistry(logger *slog.Logger) *nodelib.Registry {
	registry := nodelib.NewRegistry(logger)
	registry.RegisterDefaultTemplates()

	return registry
}

// NewAllowList builds the integration allow-list from a comma-separated
// slug list.
func NewAllowList(slugs string) *integrations.StaticAllowList {
	return integrations.NewStaticAllowList(strings.Split(slugs, ",")...)
}
