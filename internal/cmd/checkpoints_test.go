package cmd

import (
	"strings"
	"testing"

	"github.com/mklein/coco/internal/checkpoint"
	"github.com/mklein/coco/internal/models"
)

func TestCheckpointsCommandListsSessions(t *testing.T) {
	project := t.TempDir()
	seedCheckpoint(t, project, "coco-list-a", models.PhaseConverge)
	seedCheckpoint(t, project, "coco-list-b", models.PhaseComplete)

	output, err := executeCommand(t, "checkpoints", "--project", project)
	if err != nil {
		t.Fatalf("checkpoints failed: %v\noutput: %s", err, output)
	}

	if !strings.Contains(output, "coco-list-a") || !strings.Contains(output, "coco-list-b") {
		t.Errorf("Expected both sessions listed, got: %s", output)
	}
	if !strings.Contains(output, "2 checkpoint(s)") {
		t.Errorf("Expected checkpoint count, got: %s", output)
	}
}

func TestCheckpointsCommandEmpty(t *testing.T) {
	project := t.TempDir()

	output, err := executeCommand(t, "checkpoints", "--project", project)
	if err != nil {
		t.Fatalf("checkpoints failed: %v", err)
	}
	if !strings.Contains(output, "No checkpoints found") {
		t.Errorf("Expected empty-state message, got: %s", output)
	}
}

func TestCheckpointsDeleteCommand(t *testing.T) {
	project := t.TempDir()
	seedCheckpoint(t, project, "coco-delete-me", models.PhaseIdle)

	output, err := executeCommand(t, "checkpoints", "delete", "coco-delete-me", "--project", project)
	if err != nil {
		t.Fatalf("delete failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Deleted checkpoint") {
		t.Errorf("Expected deletion confirmation, got: %s", output)
	}

	store := checkpoint.NewStore(project, nil)
	if store.Has("coco-delete-me") {
		t.Error("Expected checkpoint to be removed")
	}
}

func TestCheckpointsDeleteUnknownSession(t *testing.T) {
	project := t.TempDir()

	_, err := executeCommand(t, "checkpoints", "delete", "missing", "--project", project)
	if err == nil {
		t.Fatal("Expected error for unknown session")
	}
	if !strings.Contains(err.Error(), "no checkpoint found") {
		t.Errorf("Expected 'no checkpoint found' error, got: %v", err)
	}
}
