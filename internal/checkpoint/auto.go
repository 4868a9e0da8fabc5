package checkpoint

import (
	"time"

	"github.com/mklein/coco/internal/models"
)

// StateSupplier returns the state to checkpoint. It is invoked fresh on
// every tick so the timer never persists a stale captured snapshot.
type StateSupplier func() *models.OrchestratorState

// StartAutoCheckpoint begins periodic saves at the configured interval.
// Save failures are logged and swallowed; the timer keeps running.
// Calling it while a timer is already running restarts the timer.
func (s *Store) StartAutoCheckpoint(supply StateSupplier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ticker := time.NewTicker(s.interval)
	stop := make(chan struct{})
	done := make(chan struct{})
	s.ticker = ticker
	s.stopAuto = stop
	s.autoDone = done

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				state := supply()
				if state == nil {
					continue
				}
				if err := s.Save(state); err != nil {
					s.log.Warnf("auto-checkpoint failed: %v", err)
					continue
				}
				s.log.Debugf("auto-checkpoint saved for session %s", state.SessionID)
			case <-stop:
				return
			}
		}
	}()
}

// StopAutoCheckpoint cancels the periodic save timer and waits for any
// in-flight tick to finish, so no save races a caller's final write.
// Safe to call when no timer is running, and safe to call repeatedly.
func (s *Store) StopAutoCheckpoint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked tears down the running timer. Caller holds s.mu.
func (s *Store) stopLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stopAuto)
	<-s.autoDone
	s.ticker = nil
	s.stopAuto = nil
	s.autoDone = nil
}
