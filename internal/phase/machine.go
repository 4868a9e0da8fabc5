// Package phase implements the pipeline state machine that tracks the
// current phase, records completed phases, and advances along the
// canonical converge -> orchestrate -> complete -> output order.
package phase

import (
	"github.com/mklein/coco/internal/models"
)

// Machine tracks phase progression for one orchestrator session.
// It mutates the session state it is bound to; the orchestrator remains
// the owner of that state.
type Machine struct {
	state *models.OrchestratorState
}

// NewMachine binds a state machine to the given session state.
func NewMachine(state *models.OrchestratorState) *Machine {
	if state == nil {
		panic("phase machine requires a non-nil state")
	}
	return &Machine{state: state}
}

// Current returns the active phase.
func (m *Machine) Current() models.Phase {
	return m.state.CurrentPhase
}

// Completed returns a copy of the completed phases in completion order.
func (m *Machine) Completed() []models.Phase {
	out := make([]models.Phase, len(m.state.CompletedPhases))
	copy(out, m.state.CompletedPhases)
	return out
}

// IsCompleted reports whether the given phase has been completed.
func (m *Machine) IsCompleted(p models.Phase) bool {
	for _, done := range m.state.CompletedPhases {
		if done == p {
			return true
		}
	}
	return false
}

// UpdatePhase sets the current phase unconditionally. Used when resuming
// from a checkpoint or forcing a phase in tests; performs no validation
// against the transition table.
func (m *Machine) UpdatePhase(p models.Phase) {
	m.state.CurrentPhase = p
}

// CompletePhase records p as completed (idempotently) and advances the
// current phase to p's canonical successor unless p is terminal.
//
// Completion is deliberately permissive about ordering: completing a
// phase that is not the current one still records it and advances from
// it, which is what checkpoint resume and manual phase forcing rely on.
func (m *Machine) CompletePhase(p models.Phase) {
	if !m.IsCompleted(p) {
		m.state.CompletedPhases = append(m.state.CompletedPhases, p)
	}
	if next, ok := p.Next(); ok {
		m.state.CurrentPhase = next
	}
}

// NextPhase returns the canonical successor of the current phase without
// side effects. ok is false when the current phase is terminal.
func (m *Machine) NextPhase() (models.Phase, bool) {
	return m.state.CurrentPhase.Next()
}
