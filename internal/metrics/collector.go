// Package metrics records phase timing and success statistics. The
// collector is independent of every other component; persistence to the
// history database is optional.
package metrics

import (
	"sync"
	"time"

	"github.com/mklein/coco/internal/models"
)

// PhaseStats accumulates execution statistics for one phase.
type PhaseStats struct {
	Phase         models.Phase
	Executions    int64
	Successes     int64
	Failures      int64
	TotalDuration time.Duration
	LastRun       time.Time
}

// AverageDuration returns the mean execution time, or zero with no runs.
func (ps *PhaseStats) AverageDuration() time.Duration {
	if ps.Executions == 0 {
		return 0
	}
	return ps.TotalDuration / time.Duration(ps.Executions)
}

// SuccessRate returns successes over executions in [0, 1].
func (ps *PhaseStats) SuccessRate() float64 {
	if ps.Executions == 0 {
		return 0
	}
	return float64(ps.Successes) / float64(ps.Executions)
}

// Collector tracks per-phase statistics. Thread-safe.
type Collector struct {
	mu     sync.RWMutex
	phases map[models.Phase]*PhaseStats
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{phases: make(map[models.Phase]*PhaseStats)}
}

// RecordPhase records one phase execution.
func (c *Collector) RecordPhase(phase models.Phase, duration time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.phases[phase]
	if !ok {
		stats = &PhaseStats{Phase: phase}
		c.phases[phase] = stats
	}
	stats.Executions++
	if success {
		stats.Successes++
	} else {
		stats.Failures++
	}
	stats.TotalDuration += duration
	stats.LastRun = time.Now()
}

// Stats returns a copy of the statistics for one phase, or nil when the
// phase was never recorded.
func (c *Collector) Stats(phase models.Phase) *PhaseStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats, ok := c.phases[phase]
	if !ok {
		return nil
	}
	cp := *stats
	return &cp
}

// All returns a copy of the statistics for every recorded phase.
func (c *Collector) All() map[models.Phase]*PhaseStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[models.Phase]*PhaseStats, len(c.phases))
	for phase, stats := range c.phases {
		cp := *stats
		out[phase] = &cp
	}
	return out
}

// Reset clears all statistics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phases = make(map[models.Phase]*PhaseStats)
}
