// Package nodelib provides default template registration for the node library.
package nodelib

// RegisterDefaultTemplates registers the built-in node vocabulary with the
// registry.
func (r *Registry) RegisterDefaultTemplates() {
	r.Register(NewTriggerTemplate())
	r.Register(NewMessageTemplate())
	r.Register(NewQuestionTemplate())
	r.Register(NewConditionTemplate())
	r.Register(NewIntegrationTemplate())
	r.Register(NewHandoffTemplate())
	r.Register(NewDelayTemplate())
}
