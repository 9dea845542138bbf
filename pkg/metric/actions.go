package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "actionmenu"

// ActionMetrics records registry changes and render outcomes.
// It implements action.Observer.
type ActionMetrics struct {
	registered   *Gauge
	changes      IncrementalCounter
	renders      IncrementalCounter
	renderErrors IncrementalCounter
}

// NewActionMetrics registers the action metrics with reg.
func NewActionMetrics(reg prometheus.Registerer) *ActionMetrics {
	return &ActionMetrics{
		registered: NewGaugeWithRegistry(reg,
			namespace+"_registered_actions",
			"Number of actions currently registered.",
			"registry"),
		changes: NewCounterWithRegistry(reg,
			namespace+"_registry_changes_total",
			"Number of action registrations and unregistrations.",
			"registry", "op"),
		renders: NewCounterWithRegistry(reg,
			namespace+"_renders_total",
			"Number of action render attempts.",
			"registry"),
		renderErrors: NewCounterWithRegistry(reg,
			namespace+"_render_errors_total",
			"Number of actions that failed to render.",
			"registry", "action_id"),
	}
}

// ActionRegistered implements action.Observer.
func (m *ActionMetrics) ActionRegistered(registry, _ string) {
	m.registered.Add(1, registry)
	m.changes.Increment(registry, "register")
}

// ActionUnregistered implements action.Observer.
func (m *ActionMetrics) ActionUnregistered(registry, _ string) {
	m.registered.Add(-1, registry)
	m.changes.Increment(registry, "unregister")
}

// Rendered records a render attempt.
func (m *ActionMetrics) Rendered(registry string) {
	m.renders.Increment(registry)
}

// RenderFailed records an action that failed to render.
func (m *ActionMetrics) RenderFailed(registry, actionID string) {
	m.renderErrors.Increment(registry, actionID)
}
