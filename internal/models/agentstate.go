package models

import "time"

// AgentState captures the last known status of one named agent.
type AgentState struct {
	Status      string    `json:"status"`
	CurrentTask string    `json:"current_task,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// AgentStates is an ordered mapping of agent name to state. Insertion
// order is preserved so checkpoints round-trip deterministically; the
// flattening to a serialization-friendly form lives in the checkpoint
// package, not here.
type AgentStates struct {
	keys   []string
	values map[string]AgentState
}

// NewAgentStates returns an empty ordered mapping.
func NewAgentStates() *AgentStates {
	return &AgentStates{values: make(map[string]AgentState)}
}

// Set inserts or updates the state for an agent. First insertion fixes
// the agent's position in iteration order.
func (a *AgentStates) Set(name string, state AgentState) {
	if a.values == nil {
		a.values = make(map[string]AgentState)
	}
	if _, exists := a.values[name]; !exists {
		a.keys = append(a.keys, name)
	}
	a.values[name] = state
}

// Get returns the state for an agent and whether it exists.
func (a *AgentStates) Get(name string) (AgentState, bool) {
	if a == nil || a.values == nil {
		return AgentState{}, false
	}
	state, ok := a.values[name]
	return state, ok
}

// Keys returns agent names in insertion order.
func (a *AgentStates) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of tracked agents.
func (a *AgentStates) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns an independent copy preserving insertion order.
func (a *AgentStates) Clone() *AgentStates {
	out := NewAgentStates()
	if a == nil {
		return out
	}
	out.keys = append(out.keys, a.keys...)
	for k, v := range a.values {
		out.values[k] = v
	}
	return out
}

// Range calls fn for each agent in insertion order, stopping if fn
// returns false.
func (a *AgentStates) Range(fn func(name string, state AgentState) bool) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		if !fn(k, a.values[k]) {
			return
		}
	}
}
