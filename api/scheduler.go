/*
scheduler.go - Due-follow-up scheduler

PURPOSE:
  Periodically derives every user's follow-up states, finds the ones that
  are due and going stale, and auto-snoozes them so they resurface later
  instead of rotting at the top of the notification list.

DESIGN:
  - Runs a background goroutine with a fixed check interval (default 60s)
  - Performs one check cycle immediately on Start
  - A new cycle is skipped entirely while a previous one is in flight
    (single in-flight flag - never two concurrent cycles)
  - Per-user failures are logged individually and never abort the cycle
  - A failure listing users ends the cycle but leaves the scheduler
    Running; it self-heals on the next timer firing
  - Stop waits for any in-flight cycle, bounded by a timeout (default 5s),
    then force-transitions to Stopped

STATE MACHINE:
  Stopped -> Running (Start) -> Stopping (Stop) -> Stopped
  Start is idempotent while Running. IsActive reports true only for
  Running; Stopping counts as inactive since no new work will be scheduled.

AUTO-SNOOZE RULE:
  A follow-up qualifies when it is not dismissed, its due time is at least
  StaleAfter in the past, and its most recent transaction is not itself a
  snooze younger than RecentSnoozeWindow. Qualifying follow-ups get one
  snooze(id, SnoozeMinutes, automatic).

USAGE:
  s := api.NewDueFollowupScheduler(followups, dir, clock, logger)
  s.Start()
  // ... later
  <-s.Stop()

SEE ALSO:
  - followup/service.go: GetDueFollowups, Snooze
  - cmd/server/main.go: the single long-lived instance is constructed there
    and passed by handle (no lazy module-global)
*/
package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verdant/seed-engine/engine"
	"github.com/verdant/seed-engine/followup"
)

// AutomationScheduler is the automation id stamped on scheduler-produced
// snooze transactions.
const AutomationScheduler engine.AutomationID = "due-followup-scheduler"

// SchedulerState is the lifecycle state of the scheduler.
type SchedulerState int

const (
	SchedulerStopped SchedulerState = iota
	SchedulerRunning
	SchedulerStopping
)

// DueFollowupScheduler drives time-based side effects off the same derived
// state the read paths use.
type DueFollowupScheduler struct {
	Followups *followup.Service
	Directory engine.Directory
	Clock     engine.Clock
	Logger    engine.Logger

	CheckInterval      time.Duration
	StaleAfter         time.Duration
	SnoozeMinutes      int
	RecentSnoozeWindow time.Duration
	StopTimeout        time.Duration

	mu       sync.Mutex
	state    SchedulerState
	ticker   *time.Ticker
	stop     chan struct{}
	done     chan struct{}
	inFlight atomic.Bool
}

// NewDueFollowupScheduler creates a scheduler with the default intervals.
func NewDueFollowupScheduler(followups *followup.Service, dir engine.Directory, clock engine.Clock, logger engine.Logger) *DueFollowupScheduler {
	if clock == nil {
		clock = engine.SystemClock{}
	}
	if logger == nil {
		logger = engine.NopLogger{}
	}
	return &DueFollowupScheduler{
		Followups:          followups,
		Directory:          dir,
		Clock:              clock,
		Logger:             logger,
		CheckInterval:      60 * time.Second,
		StaleAfter:         30 * time.Minute,
		SnoozeMinutes:      90,
		RecentSnoozeWindow: 15 * time.Minute,
		StopTimeout:        5 * time.Second,
	}
}

// Start transitions to Running, performs one check cycle immediately, then
// arms the recurring timer. No-op if already Running.
func (s *DueFollowupScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SchedulerRunning {
		return
	}

	s.state = SchedulerRunning
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.ticker = time.NewTicker(s.CheckInterval)

	go s.run(s.ticker, s.stop, s.done)

	s.Logger.Printf("[scheduler] started with check interval %v", s.CheckInterval)
}

// Stop clears the timer so no new cycle starts, then waits for any in-flight
// cycle bounded by StopTimeout, after which it force-transitions to Stopped.
// The returned channel closes once the scheduler is Stopped.
func (s *DueFollowupScheduler) Stop() <-chan struct{} {
	s.mu.Lock()

	if s.state != SchedulerRunning {
		s.mu.Unlock()
		// Not running: resolve immediately.
		return closedChan()
	}

	s.state = SchedulerStopping
	s.ticker.Stop()
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	result := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-time.After(s.StopTimeout):
			s.Logger.Printf("[scheduler] stop timed out after %v with a cycle still in flight", s.StopTimeout)
		}

		s.mu.Lock()
		s.state = SchedulerStopped
		s.ticker = nil
		s.mu.Unlock()

		s.Logger.Printf("[scheduler] stopped")
		close(result)
	}()
	return result
}

// IsActive reports whether the scheduler is Running. Stopping counts as
// inactive: no new work will be scheduled.
func (s *DueFollowupScheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == SchedulerRunning
}

// State returns the current lifecycle state.
func (s *DueFollowupScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *DueFollowupScheduler) run(ticker *time.Ticker, stop, done chan struct{}) {
	defer close(done)

	// Run immediately on start.
	s.CheckNow()

	for {
		select {
		case <-ticker.C:
			s.CheckNow()
		case <-stop:
			return
		}
	}
}

// CheckNow performs one check cycle. Skipped entirely if a previous cycle is
// still in flight: the in-flight flag guarantees two cycles never overlap,
// even when a manual trigger races the timer.
func (s *DueFollowupScheduler) CheckNow() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.Logger.Printf("[scheduler] previous check still in flight, skipping cycle")
		return
	}
	defer s.inFlight.Store(false)

	ctx := context.Background()
	now := s.Clock.Now()

	users, err := s.Directory.ListUsers(ctx)
	if err != nil {
		// Cycle failure: recorded, scheduler remains Running and self-heals
		// on the next tick.
		s.Logger.Printf("[scheduler] listing users failed: %v", err)
		return
	}
	if len(users) == 0 {
		return
	}

	for _, userID := range users {
		if err := s.checkUser(ctx, userID, now); err != nil {
			s.Logger.Printf("[scheduler] user %s check failed: %v", userID, err)
		}
	}
}

func (s *DueFollowupScheduler) checkUser(ctx context.Context, userID string, now time.Time) error {
	due, err := s.Followups.GetDueFollowups(ctx, userID)
	if err != nil {
		return err
	}

	for _, d := range due {
		st, err := s.Followups.GetByID(ctx, d.FollowupID)
		if err != nil {
			s.Logger.Printf("[scheduler] loading followup %s failed: %v", d.FollowupID, err)
			continue
		}
		if st == nil || st.Dismissed {
			continue
		}
		if !s.needsAutoSnooze(st, now) {
			continue
		}
		if _, err := s.Followups.Snooze(ctx, d.FollowupID, s.SnoozeMinutes, followup.MethodAutomatic, AutomationScheduler); err != nil {
			s.Logger.Printf("[scheduler] auto-snooze of followup %s failed: %v", d.FollowupID, err)
		}
	}
	return nil
}

// needsAutoSnooze applies the staleness rule: due at least StaleAfter ago,
// and the latest transaction is not a snooze within RecentSnoozeWindow.
func (s *DueFollowupScheduler) needsAutoSnooze(st *followup.State, now time.Time) bool {
	if now.Sub(st.DueTime) < s.StaleAfter {
		return false
	}
	latest := st.LatestTransaction()
	if latest != nil && latest.Type == followup.TxSnooze && now.Sub(latest.CreatedAt) < s.RecentSnoozeWindow {
		return false
	}
	return true
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
