package jobs

import (
	"context"
	"testing"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, users ...models.User) (*Scheduler, store.Store) {
	st := memory.New()
	t.Cleanup(st.Close)
	ctx := context.Background()
	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		for i := range users {
			if err := tx.CreateUser(ctx, &users[i]); err != nil {
				return err
			}
		}
		return nil
	}))
	s, err := NewScheduler(st, ledger.NewService(), models.JobsConfig{PremiumSweepSchedule: "@every 1h", ReconcileSchedule: "@daily"})
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return now }), st
}

func TestNewScheduler_RejectsBadSchedule(t *testing.T) {
	st := memory.New()
	defer st.Close()
	_, err := NewScheduler(st, ledger.NewService(), models.JobsConfig{PremiumSweepSchedule: "whenever", ReconcileSchedule: "@daily"})
	assert.Error(t, err)
}

func TestSweepPremium(t *testing.T) {
	s, st := setup(t,
		models.User{Id: "expired", Email: "e@x.io", ReferralCode: "REF-E00001", IsPremium: true, PremiumExpiry: now.Add(-time.Minute)},
		models.User{Id: "active", Email: "a@x.io", ReferralCode: "REF-A00001", IsPremium: true, PremiumExpiry: now.Add(time.Hour)},
		models.User{Id: "plain", Email: "p@x.io", ReferralCode: "REF-P00001"},
	)
	ctx := context.Background()

	n, err := s.SweepPremium(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, "expired")
		require.NoError(t, err)
		assert.False(t, u.IsPremium)
		assert.Len(t, u.Notifications, 1)

		u, err = tx.GetUser(ctx, "active")
		require.NoError(t, err)
		assert.True(t, u.IsPremium)
		return nil
	}))

	n, err = s.SweepPremium(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuditBalances(t *testing.T) {
	s, st := setup(t,
		models.User{Id: "good", Email: "g@x.io", ReferralCode: "REF-G00001"},
		models.User{Id: "drifted", Email: "d@x.io", ReferralCode: "REF-D00001"},
	)
	ctx := context.Background()
	ledgerService := ledger.NewService()

	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		_, err := ledgerService.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId: "good", Delta: decimal.NewFromInt(3), Type: models.TxAdminCredit, Origin: models.OriginAdmin,
		})
		if err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, "drifted")
		if err != nil {
			return err
		}
		return tx.SetBalance(ctx, "drifted", decimal.NewFromInt(9), u.Version)
	}))

	mismatched, err := s.AuditBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"drifted"}, mismatched)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
