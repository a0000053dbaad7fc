// Package jobs runs periodic maintenance over the wallet store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/metrics"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobPremiumSweep = "premium_sweep"
	jobReconcile    = "reconcile"
)

type Scheduler struct {
	cron   *cron.Cron
	store  store.Store
	ledger *ledger.Service
	now    func() time.Time
}

func NewScheduler(st store.Store, ledgerService *ledger.Service, cfg models.JobsConfig) (*Scheduler, error) {
	logger := zapCronLogger{}
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		store:  st,
		ledger: ledgerService,
		now:    time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.PremiumSweepSchedule, s.run(jobPremiumSweep, func(ctx context.Context) error {
		_, err := s.SweepPremium(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("invalid premium sweep schedule %q: %w", cfg.PremiumSweepSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReconcileSchedule, s.run(jobReconcile, func(ctx context.Context) error {
		_, err := s.AuditBalances(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
	}
	return s, nil
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	zap.L().Info("Job scheduler started", zap.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	zap.L().Info("Job scheduler stopped")
	return nil
}

func (s *Scheduler) run(job string, fn func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		err := fn(context.Background())
		metrics.RecordJobRun(job, time.Since(start), err == nil)
		if err != nil {
			zap.L().Error("Job failed", zap.String("job", job), zap.Error(err))
		}
	}
}

// SweepPremium clears Yard+ on every account whose expiry has passed and
// returns how many were cleared.
func (s *Scheduler) SweepPremium(ctx context.Context) (int, error) {
	now := s.now()
	expired := 0
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		users, err := tx.ListUsers(ctx)
		if err != nil {
			return err
		}
		for i := range users {
			u := &users[i]
			if !u.IsPremium || u.PremiumExpiry.IsZero() || now.Before(u.PremiumExpiry) {
				continue
			}
			u.IsPremium = false
			u.Notify("Yard+ Expired. Renew to keep boosted rates.")
			if err := tx.UpdateUser(ctx, u); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		zap.L().Info("Premium memberships expired", zap.Int("count", expired))
	}
	return expired, nil
}

// AuditBalances compares every wallet with its audit trail and returns the
// ids that disagree.
func (s *Scheduler) AuditBalances(ctx context.Context) ([]string, error) {
	var mismatched []string
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		users, err := tx.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			err := s.ledger.Reconcile(ctx, tx, u.Id)
			if errors.Is(err, ledger.ErrOutOfBalance) {
				zap.L().Error("Wallet out of balance", zap.String("user_id", u.Id), zap.Error(err))
				mismatched = append(mismatched, u.Id)
				continue
			}
			if err != nil {
				return err
			}
		}
		zap.L().Info("Balance audit complete", zap.Int("users", len(users)), zap.Int("mismatched", len(mismatched)))
		return nil
	})
	return mismatched, err
}

type zapCronLogger struct{}

func (zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Debugw(msg, keysAndValues...)
}

func (zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
