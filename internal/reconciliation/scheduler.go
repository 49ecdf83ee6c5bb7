// Package reconciliation periodically closes bookings whose check-out date
// has passed, releasing their rooms.
package reconciliation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"roomkeeper/internal/bookings/service"
	"roomkeeper/pkg/clock"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

var ErrSweepInProgress = errors.New("reconciliation sweep already in progress")

// OverdueFinder lists active bookings due for check-out.
type OverdueFinder interface {
	FindOverdue(ctx context.Context, today time.Time, after *model.OverdueCursor, limit int) ([]*model.Booking, error)
}

// CheckOuter performs the forced transition for one booking.
type CheckOuter interface {
	ForceCheckOut(ctx context.Context, booking *model.Booking) (service.CheckOutResult, error)
}

type Report struct {
	Scanned       int       `json:"scanned"`
	CheckedOut    int       `json:"checked_out"`
	RoomsReleased int       `json:"rooms_released"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

type Config struct {
	Interval  time.Duration
	BatchSize int
}

type Scheduler struct {
	finder  OverdueFinder
	engine  CheckOuter
	clock   clock.Clock
	cfg     Config
	log     *logger.Logger
	running atomic.Bool

	mu   sync.RWMutex
	last *Report

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(finder OverdueFinder, engine CheckOuter, clk clock.Clock, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Scheduler{
		finder: finder,
		engine: engine,
		clock:  clk,
		cfg:    cfg,
		log:    log.Component("reconciliation"),
	}
}

// Start runs a sweep immediately and then once per interval until ctx is
// cancelled or Stop is called. It returns without blocking.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.trigger(ctx)
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Reconciliation scheduler stopped")
				return
			case <-ticker.C:
				s.trigger(ctx)
			}
		}
	}()

	s.log.Info("Reconciliation scheduler started", "interval", s.cfg.Interval, "batch_size", s.cfg.BatchSize)
}

func (s *Scheduler) trigger(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.log.Info("Skipping scheduled sweep, previous sweep still running")
			return
		}
		s.log.Error("Reconciliation sweep failed", "error", err)
	}
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
	})
}

// RunOnce performs a sweep unless one is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	report, err := s.Sweep(ctx)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	return report, err
}

// LastReport returns the most recent sweep result, if any.
func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Sweep checks out every active booking whose check-out date is today or
// earlier. Failures on one booking are counted and do not stop the sweep:
// batches are read past a cursor, so bookings that stay active after a failed
// check-out are not returned again within the same sweep.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	report := Report{StartedAt: s.clock.Now()}
	today := clock.Today(s.clock)

	var after *model.OverdueCursor
	for {
		batch, err := s.finder.FindOverdue(ctx, today, after, s.cfg.BatchSize)
		if err != nil {
			report.FinishedAt = s.clock.Now()
			return report, err
		}

		for _, booking := range batch {
			report.Scanned++

			if ctx.Err() != nil {
				report.FinishedAt = s.clock.Now()
				return report, ctx.Err()
			}
			s.process(ctx, booking, &report)
		}

		if len(batch) < s.cfg.BatchSize {
			break
		}
		after = model.CursorOf(batch[len(batch)-1])
	}

	report.FinishedAt = s.clock.Now()
	s.log.Info("Reconciliation sweep finished",
		"today", today.Format(model.DateLayout),
		"scanned", report.Scanned,
		"checked_out", report.CheckedOut,
		"rooms_released", report.RoomsReleased,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (s *Scheduler) process(ctx context.Context, booking *model.Booking, report *Report) {
	result, err := s.engine.ForceCheckOut(ctx, booking)
	switch {
	case err != nil:
		report.Failed++
		s.log.Error("Failed to check out overdue booking",
			"booking_id", booking.ID,
			"room_id", booking.RoomID,
			"check_out_date", booking.CheckOutDate.Format(model.DateLayout),
			"error", err,
		)
	case !result.CheckedOut:
		report.Skipped++
		s.log.Debug("Overdue booking changed before sweep reached it", "booking_id", booking.ID)
	default:
		report.CheckedOut++
		if result.RoomReleased {
			report.RoomsReleased++
		}
	}
}
