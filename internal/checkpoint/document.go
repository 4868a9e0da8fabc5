package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/mklein/coco/internal/models"
)

// document is the on-disk form of an OrchestratorState. The ordered
// AgentStates mapping is flattened to a slice of entries so the JSON
// round-trips in insertion order; this is the only place that
// conversion happens.
type document struct {
	SessionID       string                 `json:"session_id"`
	CurrentPhase    models.Phase           `json:"current_phase"`
	CompletedPhases []models.Phase         `json:"completed_phases,omitempty"`
	Tasks           []models.Task          `json:"tasks,omitempty"`
	CompletedTasks  []string               `json:"completed_tasks,omitempty"`
	AgentStates     []agentStateEntry      `json:"agent_states,omitempty"`
	GeneratedFiles  []string               `json:"generated_files,omitempty"`
	QualityHistory  []models.QualityScores `json:"quality_history,omitempty"`
	Metadata        models.StateMetadata   `json:"metadata"`
}

type agentStateEntry struct {
	Agent string            `json:"agent"`
	State models.AgentState `json:"state"`
}

// toDocument flattens state into its serialization form.
func toDocument(state *models.OrchestratorState) *document {
	doc := &document{
		SessionID:       state.SessionID,
		CurrentPhase:    state.CurrentPhase,
		CompletedPhases: state.CompletedPhases,
		Tasks:           state.Tasks,
		CompletedTasks:  state.CompletedTasks,
		GeneratedFiles:  state.GeneratedFiles,
		QualityHistory:  state.QualityHistory,
		Metadata:        state.Metadata,
	}
	state.AgentStates.Range(func(name string, s models.AgentState) bool {
		doc.AgentStates = append(doc.AgentStates, agentStateEntry{Agent: name, State: s})
		return true
	})
	return doc
}

// fromDocument rehydrates a state, promoting the flat agent entries back
// into the ordered mapping and validating domain invariants.
func fromDocument(doc *document) (*models.OrchestratorState, error) {
	state := &models.OrchestratorState{
		SessionID:       doc.SessionID,
		CurrentPhase:    doc.CurrentPhase,
		CompletedPhases: doc.CompletedPhases,
		Tasks:           doc.Tasks,
		CompletedTasks:  doc.CompletedTasks,
		AgentStates:     models.NewAgentStates(),
		GeneratedFiles:  doc.GeneratedFiles,
		QualityHistory:  doc.QualityHistory,
		Metadata:        doc.Metadata,
	}
	for _, entry := range doc.AgentStates {
		state.AgentStates.Set(entry.Agent, entry.State)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// decodeState parses and validates raw checkpoint bytes.
func decodeState(data []byte) (*models.OrchestratorState, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptCheckpoint, err)
	}
	return fromDocument(&doc)
}
