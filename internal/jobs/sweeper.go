// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/metrics"
)

// DefaultSchedule runs the sweep every five minutes.
const DefaultSchedule = "@every 5m"

const idleLimiterTTL = 30 * time.Minute

// SweepStore deletes rows that can no longer be used.
type SweepStore interface {
	DeleteStaleCardPayments(ctx context.Context, before time.Time) (int64, error)
	DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error)
	DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error)
}

// LimiterCleaner forgets idle rate limit buckets.
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

// Sweeper removes abandoned card payments, expired verification links and
// sessions whose refresh token has expired.
type Sweeper struct {
	store          SweepStore
	limiter        LimiterCleaner
	cardPaymentTTL time.Duration
	sessionTTL     time.Duration
	log            *logrus.Entry
	now            func() time.Time
	cron           *cron.Cron
}

// NewSweeper builds a Sweeper. limiter may be nil.
func NewSweeper(store SweepStore, limiter LimiterCleaner, cardPaymentTTL, sessionTTL time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:          store,
		limiter:        limiter,
		cardPaymentTTL: cardPaymentTTL,
		sessionTTL:     sessionTTL,
		log:            log.WithField("component", "sweeper"),
		now:            time.Now,
	}
}

// Start schedules Sweep and returns immediately.
func (s *Sweeper) Start(schedule string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep runs one pass. Failures are logged and do not stop later steps.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()

	if n, err := s.store.DeleteStaleCardPayments(ctx, now.Add(-s.cardPaymentTTL)); err != nil {
		s.log.WithError(err).Error("failed to sweep card payments")
	} else {
		metrics.RecordSweep("card_payments", n)
	}

	if n, err := s.store.DeleteExpiredVerifications(ctx, now); err != nil {
		s.log.WithError(err).Error("failed to sweep verifications")
	} else {
		metrics.RecordSweep("verifications", n)
	}

	if n, err := s.store.DeleteStaleSessions(ctx, now.Add(-s.sessionTTL)); err != nil {
		s.log.WithError(err).Error("failed to sweep sessions")
	} else {
		metrics.RecordSweep("auth_sessions", n)
	}

	if s.limiter != nil {
		if dropped := s.limiter.Cleanup(idleLimiterTTL); dropped > 0 {
			s.log.WithField("dropped", dropped).Debug("forgot idle rate limit clients")
		}
	}
}
