package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mklein/coco/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS phase_metrics (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	phase       TEXT NOT NULL,
	success     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_phase_metrics_session ON phase_metrics(session_id);
`

// HistoryStore persists phase metrics to SQLite so quality trends can be
// compared across sessions.
type HistoryStore struct {
	db     *sql.DB
	dbPath string
}

// NewHistoryStore opens (creating if needed) the metrics database at
// dbPath and initializes the schema. Use ":memory:" for an ephemeral
// database.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create metrics directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open metrics database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metrics schema: %w", err)
	}

	return &HistoryStore{db: db, dbPath: dbPath}, nil
}

// Record persists one phase execution.
func (hs *HistoryStore) Record(ctx context.Context, sessionID string, phase models.Phase, duration time.Duration, success bool) error {
	_, err := hs.db.ExecContext(ctx,
		`INSERT INTO phase_metrics (session_id, phase, success, duration_ms) VALUES (?, ?, ?, ?)`,
		sessionID, string(phase), boolToInt(success), duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record phase metric: %w", err)
	}
	return nil
}

// PhaseSummary aggregates recorded executions of one phase in a session.
type PhaseSummary struct {
	Phase         models.Phase
	Executions    int64
	Successes     int64
	TotalDuration time.Duration
}

// SessionSummary returns per-phase aggregates for a session, in phase
// execution order where recorded.
func (hs *HistoryStore) SessionSummary(ctx context.Context, sessionID string) ([]PhaseSummary, error) {
	rows, err := hs.db.QueryContext(ctx,
		`SELECT phase, COUNT(*), SUM(success), SUM(duration_ms)
		 FROM phase_metrics WHERE session_id = ?
		 GROUP BY phase ORDER BY MIN(id)`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session summary: %w", err)
	}
	defer rows.Close()

	var summaries []PhaseSummary
	for rows.Next() {
		var s PhaseSummary
		var phase string
		var durationMs int64
		if err := rows.Scan(&phase, &s.Executions, &s.Successes, &durationMs); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		s.Phase = models.Phase(phase)
		s.TotalDuration = time.Duration(durationMs) * time.Millisecond
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close releases the database handle.
func (hs *HistoryStore) Close() error {
	return hs.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
