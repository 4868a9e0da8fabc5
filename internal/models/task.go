package models

import (
	"errors"
	"fmt"
	"time"
)

// TaskKind discriminates the union of task types the orchestrator tracks.
type TaskKind string

const (
	TaskScaffold  TaskKind = "scaffold"  // create project structure
	TaskImplement TaskKind = "implement" // generate component code
	TaskTest      TaskKind = "test"      // generate or repair tests
	TaskFix       TaskKind = "fix"       // convergence-loop rewrite
)

// ErrCorruptCheckpoint indicates a checkpoint document that parsed as JSON
// but failed domain validation on load.
var ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

// Task represents a single unit of work within a phase.
type Task struct {
	ID          string       `json:"id"`
	Kind        TaskKind     `json:"kind"`
	Description string       `json:"description"`
	Files       []string     `json:"files,omitempty"`
	Metadata    TaskMetadata `json:"metadata,omitempty"`
}

// TaskMetadata carries the typed per-kind detail for a task.
type TaskMetadata struct {
	Component string    `json:"component,omitempty"`
	Sprint    int       `json:"sprint,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks the task against the tagged-union contract.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: task missing id", ErrCorruptCheckpoint)
	}
	switch t.Kind {
	case TaskScaffold, TaskImplement, TaskTest, TaskFix:
		return nil
	default:
		return fmt.Errorf("%w: unknown task kind %q", ErrCorruptCheckpoint, t.Kind)
	}
}
