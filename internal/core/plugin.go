package core

import (
	"fmt"

	"kineticcore/internal/kinetics"
)

// Plugin contributes rate-law templates and commit rules.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules     []Rule
	templates []kinetics.Template
	names     map[string]struct{}
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{names: make(map[string]struct{})}
}

// RegisterRule adds a commit-time rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterTemplate adds a rate-law template. Installed templates rank after
// the built-in ones and before the fallback.
func (r *PluginRegistry) RegisterTemplate(t kinetics.Template) error {
	if t.Name == "" || t.Instantiate == nil {
		return fmt.Errorf("template requires a name and an instantiate function")
	}
	if _, dup := r.names[t.Name]; dup {
		return fmt.Errorf("template %s already registered", t.Name)
	}
	r.names[t.Name] = struct{}{}
	r.templates = append(r.templates, t)
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Templates returns a copy of registered templates in registration order.
func (r *PluginRegistry) Templates() []kinetics.Template {
	return append([]kinetics.Template(nil), r.templates...)
}

// PluginMetadata describes an installed plugin.
type PluginMetadata struct {
	Name      string
	Version   string
	Templates []string
	Rules     []string
}
