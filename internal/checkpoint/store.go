// Package checkpoint persists orchestrator state so a session survives
// process interruption at any instant. One JSON document per session id
// lives under <projectPath>/.coco/checkpoints/; every save rewrites the
// whole document atomically.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mklein/coco/internal/filelock"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/models"
)

// Store saves and restores orchestrator state for a project.
type Store struct {
	dir string
	log logger.Logger

	mu       sync.Mutex
	ticker   *time.Ticker
	stopAuto chan struct{}
	autoDone chan struct{}
	interval time.Duration
}

// DefaultInterval is the auto-checkpoint period used when none is
// configured.
const DefaultInterval = 30 * time.Second

// NewStore creates a store rooted at projectPath. The checkpoint
// directory is created lazily on first save. log may be nil.
func NewStore(projectPath string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		dir:      filepath.Join(projectPath, ".coco", "checkpoints"),
		log:      log,
		interval: DefaultInterval,
	}
}

// SetInterval overrides the auto-checkpoint period. Takes effect on the
// next StartAutoCheckpoint call.
func (s *Store) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Dir returns the checkpoint directory path.
func (s *Store) Dir() string { return s.dir }

// Save serializes the full state to <dir>/<sessionID>.json. The write is
// atomic (temp file then rename) and serialized against concurrent
// writers of the same session via a file lock, so a crash mid-save never
// leaves an unparsable document. Metadata.LastCheckpoint is stamped.
func (s *Store) Save(state *models.OrchestratorState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil state")
	}
	if state.SessionID == "" {
		return fmt.Errorf("cannot save state without session id")
	}

	state.Metadata.LastCheckpoint = time.Now()

	data, err := json.MarshalIndent(toDocument(state), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := s.pathFor(state.SessionID)
	if err := filelock.LockedWrite(path, data); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", state.SessionID, err)
	}
	return nil
}

// Resume loads the checkpoint for sessionID, or the most recent valid
// checkpoint when sessionID is empty. A missing checkpoint is not an
// error: the result is (nil, nil). A document that exists but fails to
// parse or validate returns models.ErrCorruptCheckpoint; other I/O
// errors propagate.
func (s *Store) Resume(sessionID string) (*models.OrchestratorState, error) {
	if sessionID == "" {
		infos, err := s.List()
		if err != nil {
			return nil, err
		}
		if len(infos) == 0 {
			return nil, nil
		}
		sessionID = infos[0].SessionID
	}

	data, err := os.ReadFile(s.pathFor(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", sessionID, err)
	}
	return decodeState(data)
}

// Has reports whether a checkpoint file exists for sessionID.
func (s *Store) Has(sessionID string) bool {
	_, err := os.Stat(s.pathFor(sessionID))
	return err == nil
}

// Info describes one discoverable checkpoint.
type Info struct {
	SessionID string
	Path      string
	ModTime   time.Time
	Phase     models.Phase
}

// List discovers checkpoints sorted by modification time, newest first.
// Unreadable or corrupt entries are skipped with a warning rather than
// aborting the listing. A missing checkpoint directory yields an empty
// list.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warnf("skipping unreadable checkpoint %s: %v", entry.Name(), err)
			continue
		}
		state, err := decodeState(data)
		if err != nil {
			s.log.Warnf("skipping corrupt checkpoint %s: %v", entry.Name(), err)
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			SessionID: state.SessionID,
			Path:      path,
			ModTime:   fi.ModTime(),
			Phase:     state.CurrentPhase,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// Delete removes the checkpoint for sessionID. Deleting a checkpoint
// that does not exist is not an error.
func (s *Store) Delete(sessionID string) error {
	if err := os.Remove(s.pathFor(sessionID)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete checkpoint %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) pathFor(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}
