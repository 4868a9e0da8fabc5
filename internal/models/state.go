package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StateMetadata holds session-level bookkeeping for an orchestrator run.
type StateMetadata struct {
	StartTime      time.Time `json:"start_time"`
	LastCheckpoint time.Time `json:"last_checkpoint,omitempty"`
	ProjectPath    string    `json:"project_path"`
	Provider       string    `json:"provider,omitempty"`
}

// OrchestratorState is the full mutable state of one pipeline session.
// The orchestrator is its sole writer; the checkpoint store persists it
// and the phase machine advances CurrentPhase/CompletedPhases.
type OrchestratorState struct {
	SessionID       string
	CurrentPhase    Phase
	CompletedPhases []Phase
	Tasks           []Task
	CompletedTasks  []string
	AgentStates     *AgentStates
	GeneratedFiles  []string
	QualityHistory  []QualityScores
	Metadata        StateMetadata
}

// NewOrchestratorState creates the initial state for a session rooted at
// projectPath. A fresh session id is generated when sessionID is empty.
func NewOrchestratorState(sessionID, projectPath string) *OrchestratorState {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return &OrchestratorState{
		SessionID:    sessionID,
		CurrentPhase: PhaseIdle,
		AgentStates:  NewAgentStates(),
		Metadata: StateMetadata{
			StartTime:   time.Now(),
			ProjectPath: projectPath,
		},
	}
}

// Validate checks invariants a loaded checkpoint must satisfy.
func (s *OrchestratorState) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrCorruptCheckpoint)
	}
	if !s.CurrentPhase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", ErrCorruptCheckpoint, s.CurrentPhase)
	}
	seen := make(map[Phase]bool, len(s.CompletedPhases))
	for _, p := range s.CompletedPhases {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown completed phase %q", ErrCorruptCheckpoint, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate completed phase %q", ErrCorruptCheckpoint, p)
		}
		seen[p] = true
	}
	for i := range s.Tasks {
		if err := s.Tasks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the state. The checkpoint timer persists
// through clones so a save never reads slices or maps the owner is
// still mutating.
func (s *OrchestratorState) Clone() *OrchestratorState {
	out := &OrchestratorState{
		SessionID:       s.SessionID,
		CurrentPhase:    s.CurrentPhase,
		CompletedPhases: append([]Phase(nil), s.CompletedPhases...),
		CompletedTasks:  append([]string(nil), s.CompletedTasks...),
		AgentStates:     s.AgentStates.Clone(),
		GeneratedFiles:  append([]string(nil), s.GeneratedFiles...),
		Metadata:        s.Metadata,
	}
	if s.Tasks != nil {
		out.Tasks = make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			t.Files = append([]string(nil), t.Files...)
			out.Tasks[i] = t
		}
	}
	if s.QualityHistory != nil {
		out.QualityHistory = make([]QualityScores, len(s.QualityHistory))
		for i, q := range s.QualityHistory {
			out.QualityHistory[i] = q.Clone()
		}
	}
	return out
}

// NewSessionID generates a session identifier.
// Format: coco-YYYYMMDD-HHMMSS-{uuid fragment}
func NewSessionID() string {
	timestamp := time.Now().Format("20060102-150405")
	id := uuid.New()
	return fmt.Sprintf("coco-%s-%s", timestamp, id.String()[:8])
}
