package interest

import (
	"context"
	"testing"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompound(t *testing.T) {
	tests := []struct {
		name string
		b0   string
		rate string
		cap  string
		days int
		want string
	}{
		{"no days", "100", "0.02", "10", 0, "100"},
		{"one day", "100", "0.02", "10", 1, "102"},
		{"compounds", "100", "0.02", "10", 3, "106.1208"},
		{"capped every day", "1000", "0.02", "10", 3, "1030"},
		{"cap reached midway", "495", "0.02", "10", 2, "514.9"},
		{"premium", "100", "0.04", "20", 2, "108.16"},
		{"rounds each day", "1", "0.02", "10", 5, "1.104"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compound(dec(tt.b0), dec(tt.rate), dec(tt.cap), tt.days, 4)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCompound_StaysAtMoneyScale(t *testing.T) {
	for _, days := range []int{30, 300} {
		got := Compound(dec("1"), dec("0.02"), dec("10"), days, 4)
		assert.GreaterOrEqual(t, got.Exponent(), int32(-4), "%d days grew to %s", days, got)
	}
}

type fixture struct {
	engine *Engine
	store  store.Store
	now    time.Time
}

func newFixture(t *testing.T, user models.User, balance string) *fixture {
	st := memory.New()
	t.Cleanup(st.Close)
	policy := models.DefaultPolicy()
	ledgerService := ledger.NewService()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	ctx := context.Background()
	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.CreateUser(ctx, &user); err != nil {
			return err
		}
		if b := dec(balance); b.IsPositive() {
			_, err := ledgerService.AdjustBalance(ctx, tx, ledger.AdjustParams{
				UserId: user.Id, Delta: b, Type: models.TxDeposit, Origin: models.OriginAdmin,
			})
			return err
		}
		return nil
	}))

	engine := NewEngine(ledgerService, settings.NewService(st, policy), policy).
		WithClock(func() time.Time { return now })
	return &fixture{engine: engine, store: st, now: now}
}

func (f *fixture) harvest(t *testing.T, userId string) (decimal.Decimal, *models.User) {
	var boost decimal.Decimal
	var user *models.User
	ctx := context.Background()
	require.NoError(t, f.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		if boost, err = f.engine.Harvest(ctx, tx, userId); err != nil {
			return err
		}
		user, err = tx.GetUser(ctx, userId)
		return err
	}))
	return boost, user
}

func TestHarvest_CatchesUpMissedDays(t *testing.T) {
	last := time.Date(2025, 6, 7, 11, 0, 0, 0, time.UTC) // 3 days and 1 hour ago
	f := newFixture(t, models.User{Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001", LastInterestHarvest: last}, "100")

	boost, user := f.harvest(t, "u1")
	assert.True(t, boost.Equal(dec("6.1208")), "boost %s", boost)
	assert.True(t, user.WalletBalance.Equal(dec("106.1208")))
	assert.Equal(t, f.now, user.LastInterestHarvest)

	boost, _ = f.harvest(t, "u1")
	assert.True(t, boost.IsZero(), "second harvest at the same instant must be a no-op")
}

func TestHarvest_PremiumRateAndCap(t *testing.T) {
	f := newFixture(t, models.User{
		Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001",
		LastInterestHarvest: time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC),
		IsPremium:           true,
		PremiumExpiry:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}, "1000")

	boost, _ := f.harvest(t, "u1")
	assert.True(t, boost.Equal(dec("40")), "two premium days capped at 20 each, got %s", boost)
}

func TestHarvest_ExpiredPremiumUsesBaseRate(t *testing.T) {
	f := newFixture(t, models.User{
		Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001",
		LastInterestHarvest: time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC),
		IsPremium:           true,
		PremiumExpiry:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}, "100")

	boost, _ := f.harvest(t, "u1")
	assert.True(t, boost.Equal(dec("2")), "got %s", boost)
}

func TestHarvest_NoOpCases(t *testing.T) {
	recent := time.Date(2025, 6, 9, 13, 0, 0, 0, time.UTC) // 23 hours ago
	old := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("under one day", func(t *testing.T) {
		f := newFixture(t, models.User{Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001", LastInterestHarvest: recent}, "100")
		boost, user := f.harvest(t, "u1")
		assert.True(t, boost.IsZero())
		assert.Equal(t, recent, user.LastInterestHarvest)
	})

	t.Run("frozen", func(t *testing.T) {
		f := newFixture(t, models.User{Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001", LastInterestHarvest: old, IsFrozen: true}, "100")
		boost, user := f.harvest(t, "u1")
		assert.True(t, boost.IsZero())
		assert.True(t, user.WalletBalance.Equal(dec("100")))
	})

	t.Run("empty wallet", func(t *testing.T) {
		f := newFixture(t, models.User{Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001", LastInterestHarvest: old}, "0")
		boost, _ := f.harvest(t, "u1")
		assert.True(t, boost.IsZero())
	})
}

func TestHarvest_LongAbsenceKeepsMoneyScale(t *testing.T) {
	last := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC) // 90 days ago
	f := newFixture(t, models.User{Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001", LastInterestHarvest: last}, "3.33")

	boost, user := f.harvest(t, "u1")
	require.True(t, boost.IsPositive())
	assert.GreaterOrEqual(t, boost.Exponent(), int32(-4), "boost %s", boost)
	assert.GreaterOrEqual(t, user.WalletBalance.Exponent(), int32(-4), "balance %s", user.WalletBalance)
	assert.True(t, user.WalletBalance.Equal(Compound(dec("3.33"), dec("0.02"), dec("10"), 90, 4)))
}

func TestHarvest_FallsBackToCreatedAt(t *testing.T) {
	f := newFixture(t, models.User{
		Id: "u1", Email: "u1@x.io", ReferralCode: "REF-000001",
		CreatedAt: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
	}, "50")

	boost, _ := f.harvest(t, "u1")
	assert.True(t, boost.Equal(dec("1")), "got %s", boost)
}
