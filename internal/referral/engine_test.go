package referral

import (
	"context"
	"regexp"
	"testing"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, users ...models.User) (*Engine, store.Store) {
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
	return NewEngine(ledger.NewService(), models.DefaultPolicy()), st
}

func TestGenerateCode_Format(t *testing.T) {
	engine, st := setup(t)
	pattern := regexp.MustCompile(`^REF-[A-Z0-9]{6}$`)

	require.NoError(t, st.Atomic(context.Background(), func(tx store.Tx) error {
		for i := 0; i < 20; i++ {
			code, err := engine.GenerateCode(context.Background(), tx)
			require.NoError(t, err)
			assert.Regexp(t, pattern, code)
		}
		return nil
	}))
}

func TestAttribute(t *testing.T) {
	engine, st := setup(t, models.User{Id: "C", Email: "c@x.io", ReferralCode: "REF-ABC"})
	ctx := context.Background()

	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		d := &models.User{Id: "D"}
		require.NoError(t, engine.Attribute(ctx, tx, d, "REF-ABC"))
		assert.Equal(t, "C", d.ReferredBy)

		e := &models.User{Id: "E"}
		require.NoError(t, engine.Attribute(ctx, tx, e, "REF-NOPE"))
		assert.Empty(t, e.ReferredBy)

		self := &models.User{Id: "C"}
		require.NoError(t, engine.Attribute(ctx, tx, self, "REF-ABC"))
		assert.Empty(t, self.ReferredBy)
		return nil
	}))
}

func TestPayBonusOnce_PaysExactlyOnce(t *testing.T) {
	engine, st := setup(t,
		models.User{Id: "C", Name: "Carol", Email: "c@x.io", ReferralCode: "REF-ABC"},
		models.User{Id: "D", Name: "Dan", Email: "d@x.io", ReferralCode: "REF-DDD", ReferredBy: "C"})
	ctx := context.Background()

	pay := func(amount string) bool {
		var paid bool
		require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
			var err error
			paid, err = engine.PayBonusOnce(ctx, tx, "D", decimal.RequireFromString(amount))
			return err
		}))
		return paid
	}

	assert.False(t, pay("0.5"), "below the qualifying minimum")
	assert.True(t, pay("5"))
	assert.False(t, pay("5"), "latch must prevent a second bonus")

	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		c, _ := tx.GetUser(ctx, "C")
		d, _ := tx.GetUser(ctx, "D")
		assert.True(t, c.WalletBalance.Equal(decimal.NewFromInt(1)))
		assert.True(t, c.ReferralEarnings.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, []string{"Referral Bonus: $1.00 earned from Dan's first deposit."}, c.Notifications)
		assert.True(t, d.ReferralBonusPaid)

		stats, err := engine.Stats(ctx, tx, "C")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Referred)
		assert.Equal(t, "REF-ABC", stats.Code)
		return nil
	}))
}

func TestPayBonusOnce_MissingReferrerIsIgnored(t *testing.T) {
	engine, st := setup(t, models.User{Id: "D", Email: "d@x.io", ReferralCode: "REF-DDD", ReferredBy: "gone"})
	ctx := context.Background()

	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		paid, err := engine.PayBonusOnce(ctx, tx, "D", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.False(t, paid)
		return nil
	}))
}
