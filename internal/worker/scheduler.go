// Package worker runs the background loop that moves due enrollments
// through their sequences.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sales440/ivy-ai-platform/internal/domain"
	"github.com/sales440/ivy-ai-platform/internal/pkg/distlock"
	"github.com/sales440/ivy-ai-platform/internal/pkg/logger"
	"github.com/sales440/ivy-ai-platform/internal/sequence"
)

// advancer is the slice of the sequence service the scheduler needs.
type advancer interface {
	Advance(ctx context.Context, enrollmentID string) error
}

// dueLister is the slice of the enrollment repository the scheduler needs.
type dueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Enrollment, error)
}

// SequenceScheduler polls for due enrollments on a fixed tick and advances
// each one. A distributed lock keeps multiple instances from processing the
// same batch; transport failures are left due so the next tick retries them.
type SequenceScheduler struct {
	svc  advancer
	repo dueLister
	lock distlock.Lock
	log  *logger.Logger

	tick       time.Duration
	batchSize  int
	stallAfter time.Duration // zero disables stall detection
	now        func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewSequenceScheduler(svc advancer, repo dueLister, lock distlock.Lock, tick time.Duration, batchSize int, stallAfter time.Duration) *SequenceScheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SequenceScheduler{
		svc:        svc,
		repo:       repo,
		lock:       lock,
		log:        logger.Component("SequenceScheduler"),
		tick:       tick,
		batchSize:  batchSize,
		stallAfter: stallAfter,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Start launches the tick loop. Call Stop or cancel the context to halt it.
func (s *SequenceScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("started", "tick", s.tick.String(), "batch_size", s.batchSize)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("stopped", "reason", "context cancelled")
				return
			case <-s.stop:
				s.log.Info("stopped", "reason", "stop requested")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (s *SequenceScheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// RunOnce processes one batch of due enrollments. Exported so operators can
// trigger a pass out of band.
func (s *SequenceScheduler) RunOnce(ctx context.Context) {
	got, err := s.lock.TryAcquire(ctx)
	if err != nil {
		s.log.Error("lock acquire failed", "error", err.Error())
		return
	}
	if !got {
		s.log.Debug("another instance holds the lock, skipping pass")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.log.Warn("lock release failed", "error", err.Error())
		}
	}()

	now := s.now()
	due, err := s.repo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		s.log.Error("listing due enrollments failed", "error", err.Error())
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Info("processing due enrollments", "count", len(due))

	advanced, retried, skipped := 0, 0, 0
	for _, e := range due {
		if ctx.Err() != nil {
			return
		}
		s.checkStall(e, now)

		err := s.svc.Advance(ctx, e.ID)
		var te *sequence.TransportError
		switch {
		case err == nil:
			advanced++
		case errors.As(err, &te):
			// Enrollment untouched; stays due for the next tick.
			retried++
			s.log.Warn("transport failure, will retry", "enrollment_id", e.ID, "step", e.CurrentStep+1, "error", te.Error())
		case errors.Is(err, sequence.ErrStepAlreadySent), errors.Is(err, sequence.ErrInvalidTransition),
			errors.Is(err, sequence.ErrTerminal), errors.Is(err, sequence.ErrPaused):
			skipped++
			s.log.Debug("skipping enrollment", "enrollment_id", e.ID, "reason", err.Error())
		default:
			s.log.Error("advance failed", "enrollment_id", e.ID, "error", err.Error())
		}
	}
	s.log.Info("pass complete", "advanced", advanced, "retrying", retried, "skipped", skipped)
}

// checkStall flags enrollments that have sat on the same step past the
// configured threshold. Detection is log-only.
func (s *SequenceScheduler) checkStall(e *domain.Enrollment, now time.Time) {
	if s.stallAfter <= 0 {
		return
	}
	if age := now.Sub(e.UpdatedAt); age > s.stallAfter {
		s.log.Warn("enrollment stalled",
			"enrollment_id", e.ID,
			"campaign", e.CampaignName,
			"step", e.CurrentStep+1,
			"stalled_for", age.Truncate(time.Hour).String())
	}
}
