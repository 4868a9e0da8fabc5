package models

// Phase represents a stage of the coco pipeline.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseConverge    Phase = "converge"
	PhaseOrchestrate Phase = "orchestrate"
	PhaseComplete    Phase = "complete"
	PhaseOutput      Phase = "output"
)

// phaseOrder maps each phase to its canonical successor.
// Output is terminal and has no entry.
var phaseOrder = map[Phase]Phase{
	PhaseIdle:        PhaseConverge,
	PhaseConverge:    PhaseOrchestrate,
	PhaseOrchestrate: PhaseComplete,
	PhaseComplete:    PhaseOutput,
}

// Next returns the canonical next phase and true, or "" and false
// when the phase is terminal.
func (p Phase) Next() (Phase, bool) {
	next, ok := phaseOrder[p]
	return next, ok
}

// IsTerminal reports whether the phase has no successor.
func (p Phase) IsTerminal() bool {
	_, ok := phaseOrder[p]
	return !ok
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseConverge, PhaseOrchestrate, PhaseComplete, PhaseOutput:
		return true
	}
	return false
}

// AllPhases lists the pipeline phases in execution order, idle first.
func AllPhases() []Phase {
	return []Phase{PhaseIdle, PhaseConverge, PhaseOrchestrate, PhaseComplete, PhaseOutput}
}
