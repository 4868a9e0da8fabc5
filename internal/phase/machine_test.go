package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklein/coco/internal/models"
)

func newTestMachine() (*Machine, *models.OrchestratorState) {
	state := models.NewOrchestratorState("test-session", "/tmp/project")
	return NewMachine(state), state
}

func TestNewMachinePanicsOnNilState(t *testing.T) {
	assert.Panics(t, func() { NewMachine(nil) })
}

func TestCompletePhaseAdvancesThroughPipeline(t *testing.T) {
	m, state := newTestMachine()

	require.Equal(t, models.PhaseIdle, m.Current())

	m.CompletePhase(models.PhaseIdle)
	assert.Equal(t, models.PhaseConverge, m.Current())

	m.CompletePhase(models.PhaseConverge)
	assert.Equal(t, models.PhaseOrchestrate, m.Current())

	m.CompletePhase(models.PhaseOrchestrate)
	assert.Equal(t, models.PhaseComplete, m.Current())

	m.CompletePhase(models.PhaseComplete)
	assert.Equal(t, models.PhaseOutput, m.Current())

	// Terminal phase: completion records but does not advance
	m.CompletePhase(models.PhaseOutput)
	assert.Equal(t, models.PhaseOutput, m.Current())

	assert.Equal(t, []models.Phase{
		models.PhaseIdle,
		models.PhaseConverge,
		models.PhaseOrchestrate,
		models.PhaseComplete,
		models.PhaseOutput,
	}, state.CompletedPhases)
}

func TestCompletePhaseIsIdempotent(t *testing.T) {
	m, state := newTestMachine()

	m.CompletePhase(models.PhaseConverge)
	m.CompletePhase(models.PhaseConverge)

	count := 0
	for _, p := range state.CompletedPhases {
		if p == models.PhaseConverge {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, models.PhaseOrchestrate, m.Current())
}

func TestCompletePhaseOutOfOrderIsPermissive(t *testing.T) {
	m, _ := newTestMachine()
	m.UpdatePhase(models.PhaseConverge)

	// Completing a later phase still records it and advances from it.
	m.CompletePhase(models.PhaseComplete)

	assert.True(t, m.IsCompleted(models.PhaseComplete))
	assert.Equal(t, models.PhaseOutput, m.Current())
}

func TestUpdatePhaseIsUnconditional(t *testing.T) {
	m, _ := newTestMachine()

	m.UpdatePhase(models.PhaseOutput)
	assert.Equal(t, models.PhaseOutput, m.Current())

	// Backwards jumps are allowed too (resume/testing escape hatch).
	m.UpdatePhase(models.PhaseConverge)
	assert.Equal(t, models.PhaseConverge, m.Current())
}

func TestNextPhaseHasNoSideEffects(t *testing.T) {
	m, _ := newTestMachine()

	next, ok := m.NextPhase()
	require.True(t, ok)
	assert.Equal(t, models.PhaseConverge, next)
	assert.Equal(t, models.PhaseIdle, m.Current())

	m.UpdatePhase(models.PhaseOutput)
	_, ok = m.NextPhase()
	assert.False(t, ok)
}

func TestSuggestionIsDerivedAndIdempotent(t *testing.T) {
	m, _ := newTestMachine()

	first := m.Suggestion(SuggestionContext{})
	second := m.Suggestion(SuggestionContext{})
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestSuggestionUsesPhaseContext(t *testing.T) {
	m, _ := newTestMachine()

	m.UpdatePhase(models.PhaseConverge)
	assert.Contains(t, m.Suggestion(SuggestionContext{SpecName: "billing-api"}), "billing-api")

	m.UpdatePhase(models.PhaseOrchestrate)
	assert.Contains(t, m.Suggestion(SuggestionContext{ComponentCount: 4}), "4 components")

	m.UpdatePhase(models.PhaseComplete)
	got := m.Suggestion(SuggestionContext{SprintCurrent: 2, SprintTotal: 5})
	assert.Contains(t, got, "Sprint 2 of 5")
}
