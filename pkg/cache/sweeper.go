package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweepable is implemented by stores that can drop expired entries.
type Sweepable interface {
	Sweep() int
	Len() int
}

// Sweeper periodically removes expired entries from a store using a cron
// expression such as "@every 1h" or "0 * * * *".
type Sweeper struct {
	store    Sweepable
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool

	// OnSweep, if set, is called after each run with the number of removed
	// entries and the remaining size.
	OnSweep func(removed, remaining int)
}

// NewSweeper creates a sweeper for store. It does nothing until Start.
func NewSweeper(store Sweepable, schedule string) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "cache.sweeper"),
	}
}

// Start schedules the sweep. An empty schedule is a no-op. The sweeper stops
// when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Debug("sweep schedule not configured, relying on lazy expiry")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cache sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	removed := s.store.Sweep()
	remaining := s.store.Len()

	if removed > 0 {
		s.logger.Info("cache sweep completed", "removed", removed, "remaining", remaining)
	} else {
		s.logger.Debug("cache sweep completed, nothing expired", "remaining", remaining)
	}

	if s.OnSweep != nil {
		s.OnSweep(removed, remaining)
	}
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("cache sweeper stopped")
	}
}

// NextRun returns the next scheduled sweep, or nil if not running.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
