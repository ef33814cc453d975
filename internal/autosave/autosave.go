// Package autosave writes the tournament snapshot behind the admin's edits:
// bursts of changes are debounced into one save, fanned out to every target.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/picklecup/internal/logger"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/state"
)

// Save states shown on the dashboard.
const (
	StateIdle   = "idle"
	StateSaving = "saving"
	StateSaved  = "saved"
	StateError  = "error"
)

const (
	DefaultDelay     = 1500 * time.Millisecond
	DefaultAttempts  = 3
	DefaultBackoff   = 500 * time.Millisecond
	DefaultSavedHold = 2 * time.Second
	saveTimeout      = 30 * time.Second
)

// Target is one place the snapshot is written to.
type Target interface {
	Name() string
	Save(ctx context.Context, t *models.Tournament) error
}

// Source provides the snapshot to save.
type Source interface {
	Snapshot() *models.Tournament
}

// Status is the last known outcome of saving.
type Status struct {
	State     string    `json:"state"`
	LastError string    `json:"lastError,omitempty"`
	LastSaved time.Time `json:"lastSaved,omitempty"`
	Pending   bool      `json:"pending"`
}

// Scheduler debounces change events into saves.
type Scheduler struct {
	source  Source
	targets []Target
	log     logger.Logger

	delay     time.Duration
	attempts  int
	backoff   time.Duration
	savedHold time.Duration
	onStatus  func(Status)

	saveMu sync.Mutex // one save at a time

	mu      sync.Mutex
	timer   *time.Timer
	revert  *time.Timer
	status  Status
	stopped bool
}

type Option func(*Scheduler)

func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.delay = d }
}

// WithRetry sets how many times a target is tried and the first wait between
// tries, which doubles on each retry.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Scheduler) {
		if attempts < 1 {
			attempts = 1
		}
		s.attempts = attempts
		s.backoff = backoff
	}
}

// WithSavedHold sets how long "saved" is shown before returning to idle.
func WithSavedHold(d time.Duration) Option {
	return func(s *Scheduler) { s.savedHold = d }
}

// WithStatusFunc registers a callback run on every status change.
func WithStatusFunc(fn func(Status)) Option {
	return func(s *Scheduler) { s.onStatus = fn }
}

func New(source Source, targets []Target, log logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:    source,
		targets:   targets,
		log:       log,
		delay:     DefaultDelay,
		attempts:  DefaultAttempts,
		backoff:   DefaultBackoff,
		savedHold: DefaultSavedHold,
		status:    Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify schedules a save for local changes. Remote snapshots are already
// stored elsewhere and must not echo back.
func (s *Scheduler) Notify(e state.Event) {
	if e.Source == state.SourceRemote {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
	pending := !s.status.Pending
	s.status.Pending = true
	st := s.status
	s.mu.Unlock()

	if pending {
		s.publish(st)
	}
}

func (s *Scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.Warn("Autosave failed", "error", err)
	}
}

// Flush cancels any pending debounce and saves immediately.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.setStatus(func(st *Status) {
		st.State = StateSaving
		st.Pending = false
	})

	snapshot := s.source.Snapshot()
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range s.targets {
		g.Go(func() error {
			if err := s.saveWithRetry(gctx, target, snapshot); err != nil {
				return fmt.Errorf("%s: %w", target.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	if err != nil {
		s.setStatus(func(st *Status) {
			st.State = StateError
			st.LastError = err.Error()
		})
		return err
	}

	s.setStatus(func(st *Status) {
		st.State = StateSaved
		st.LastError = ""
		st.LastSaved = time.Now()
	})
	s.scheduleRevert()
	s.log.Debug("Snapshot saved", "targets", len(s.targets))
	return nil
}

func (s *Scheduler) saveWithRetry(ctx context.Context, target Target, t *models.Tournament) error {
	wait := s.backoff
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = target.Save(ctx, t); err == nil {
			return nil
		}
		s.log.Debug("Save attempt failed", "target", target.Name(), "attempt", attempt, "error", err)
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}

func (s *Scheduler) scheduleRevert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revert != nil {
		s.revert.Stop()
	}
	s.revert = time.AfterFunc(s.savedHold, func() {
		s.setStatus(func(st *Status) {
			if st.State == StateSaved {
				st.State = StateIdle
			}
		})
	})
}

func (s *Scheduler) setStatus(fn func(st *Status)) {
	s.mu.Lock()
	before := s.status
	fn(&s.status)
	after := s.status
	s.mu.Unlock()

	if after != before {
		s.publish(after)
	}
}

func (s *Scheduler) publish(st Status) {
	if s.onStatus != nil {
		s.onStatus(st)
	}
}

// Status returns the current save status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stop cancels pending work. Callers wanting a final save call Flush first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.revert != nil {
		s.revert.Stop()
	}
}
