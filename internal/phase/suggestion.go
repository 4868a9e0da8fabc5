package phase

import (
	"fmt"

	"github.com/mklein/coco/internal/models"
)

// SuggestionContext carries optional phase-specific detail used to make
// the suggestion concrete. Zero values are simply omitted.
type SuggestionContext struct {
	SpecName       string // name of the converged specification, if any
	ComponentCount int    // components planned during orchestrate
	SprintCurrent  int    // current sprint during complete
	SprintTotal    int    // total sprints during complete
}

// Suggestion projects the machine's current state into a human-readable
// next action. It is purely derived: calling it never mutates state and
// repeated calls return the same string for the same state.
func (m *Machine) Suggestion(sctx SuggestionContext) string {
	switch m.state.CurrentPhase {
	case models.PhaseIdle:
		return "Run the converge phase to turn your idea into a specification."
	case models.PhaseConverge:
		if sctx.SpecName != "" {
			return fmt.Sprintf("Specification %q is taking shape. Finish converging, then orchestrate the build plan.", sctx.SpecName)
		}
		return "Converge on a specification, then orchestrate the build plan."
	case models.PhaseOrchestrate:
		if sctx.ComponentCount > 0 {
			return fmt.Sprintf("Plan covers %d components. Run the complete phase to implement and converge on passing tests.", sctx.ComponentCount)
		}
		return "Orchestrate the component plan, then run the complete phase."
	case models.PhaseComplete:
		if sctx.SprintTotal > 0 {
			return fmt.Sprintf("Sprint %d of %d in progress. Keep the convergence loop running until tests pass.", sctx.SprintCurrent, sctx.SprintTotal)
		}
		return "Run the quality convergence loop until the generated code passes its tests."
	case models.PhaseOutput:
		return "Review the generated output and finalize the project."
	default:
		return "Resume the session to continue the pipeline."
	}
}
