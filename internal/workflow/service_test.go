package workflow

import (
	"context"
	"testing"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	svc      *Service
	store    store.Store
	ledger   *ledger.Service
	settings *settings.Service
}

func newHarness(t *testing.T, users ...models.User) *harness {
	st := memory.New()
	t.Cleanup(st.Close)
	policy := models.DefaultPolicy()
	ledgerService := ledger.NewService()
	settingsService := settings.NewService(st, policy)

	ctx := context.Background()
	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		for i := range users {
			if err := tx.CreateUser(ctx, &users[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	svc := NewService(st, ledgerService, referral.NewEngine(ledgerService, policy), settingsService, policy).
		WithClock(func() time.Time { return testNow })
	return &harness{svc: svc, store: st, ledger: ledgerService, settings: settingsService}
}

func (h *harness) fund(t *testing.T, userId, amount string) {
	ctx := context.Background()
	require.NoError(t, h.store.Atomic(ctx, func(tx store.Tx) error {
		_, err := h.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId: userId, Delta: dec(amount), Type: models.TxAdminCredit, Origin: models.OriginAdmin,
		})
		return err
	}))
}

func (h *harness) user(t *testing.T, id string) *models.User {
	var out *models.User
	require.NoError(t, h.store.Atomic(context.Background(), func(tx store.Tx) error {
		var err error
		out, err = tx.GetUser(context.Background(), id)
		return err
	}))
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func member(id, name string) models.User {
	return models.User{Id: id, Name: name, Email: id + "@earnyard.test", ReferralCode: "REF-" + id, Role: models.RoleUser}
}

func TestDeposit_PendingThenApproved(t *testing.T) {
	h := newHarness(t, member("A", "Ama"))
	ctx := context.Background()

	req, err := h.svc.SubmitDeposit(ctx, "A", dec("10"), "X")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.True(t, req.LocalAmount.Equal(dec("152")))
	assert.True(t, h.user(t, "A").WalletBalance.IsZero())

	approved, err := h.svc.Approve(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, testNow, approved.ResolvedAt)

	a := h.user(t, "A")
	assert.True(t, a.WalletBalance.Equal(dec("10")))
	assert.Equal(t, "Deposit Approved: $10.00", a.Notifications[0])
}

func TestDeposit_Validation(t *testing.T) {
	h := newHarness(t, member("A", "Ama"))
	ctx := context.Background()

	_, err := h.svc.SubmitDeposit(ctx, "A", dec("0"), "X")
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = h.svc.SubmitDeposit(ctx, "A", dec("5"), " ")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	_, err = h.svc.SubmitDeposit(ctx, "ghost", dec("5"), "X")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithdrawal_RejectRestoresBalance(t *testing.T) {
	h := newHarness(t, member("B", "Ben"))
	h.fund(t, "B", "20")
	ctx := context.Background()

	req, err := h.svc.SubmitWithdrawal(ctx, "B", WithdrawalInput{
		Amount: dec("10"), Method: models.MethodMomo, Address: "0241234567", AccountName: "Ben",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.True(t, req.FeeAmount.Equal(dec("0.5")))
	assert.True(t, req.LocalAmount.Equal(dec("142.5")))
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Withdrawal initiated.", req.Messages[0].Text)
	assert.True(t, h.user(t, "B").WalletBalance.Equal(dec("10")))

	rejected, err := h.svc.Reject(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.True(t, h.user(t, "B").WalletBalance.Equal(dec("20")))

	_, err = h.svc.Reject(ctx, req.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyFinalized)
	_, err = h.svc.Approve(ctx, req.Id)
	assert.ErrorIs(t, err, models.ErrAlreadyFinalized)
	assert.True(t, h.user(t, "B").WalletBalance.Equal(dec("20")), "finalized request must not move money again")
}

func TestWithdrawal_ApproveSettlesWithoutUserEffect(t *testing.T) {
	h := newHarness(t, member("B", "Ben"))
	h.fund(t, "B", "20")
	ctx := context.Background()

	req, err := h.svc.SubmitWithdrawal(ctx, "B", WithdrawalInput{
		Amount: dec("10"), Method: models.MethodUSDT, Address: "TXyz", AccountName: "Ben",
	})
	require.NoError(t, err)

	done, err := h.svc.Approve(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.True(t, h.user(t, "B").WalletBalance.Equal(dec("10")))

	require.NoError(t, h.store.Atomic(ctx, func(tx store.Tx) error {
		settled, err := tx.SumTransactions(ctx, ledger.PlatformSettlementAccount)
		require.NoError(t, err)
		assert.True(t, settled.Equal(dec("10")))
		return h.ledger.Reconcile(ctx, tx, "B")
	}))
}

func TestWithdrawal_Guards(t *testing.T) {
	premium := member("P", "Pat")
	premium.IsPremium = true
	premium.PremiumExpiry = testNow.Add(24 * time.Hour)
	frozen := member("F", "Fay")
	frozen.IsFrozen = true

	h := newHarness(t, member("B", "Ben"), premium, frozen)
	h.fund(t, "B", "8")
	h.fund(t, "P", "10")
	h.fund(t, "F", "10")
	ctx := context.Background()
	in := func(amount string) WithdrawalInput {
		return WithdrawalInput{Amount: dec(amount), Method: models.MethodMomo, Address: "024", AccountName: "n"}
	}

	_, err := h.svc.SubmitWithdrawal(ctx, "B", in("4.99"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = h.svc.SubmitWithdrawal(ctx, "B", in("9"))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	_, err = h.svc.SubmitWithdrawal(ctx, "B", WithdrawalInput{Amount: dec("5"), Method: "paypal", Address: "a", AccountName: "n"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = h.svc.SubmitWithdrawal(ctx, "F", in("5"))
	assert.ErrorIs(t, err, models.ErrAccountFrozen)

	req, err := h.svc.SubmitWithdrawal(ctx, "P", in("10"))
	require.NoError(t, err)
	assert.True(t, req.FeeAmount.IsZero(), "premium accounts pay no fee")

	// Sequential withdrawals observe the first debit.
	_, err = h.svc.SubmitWithdrawal(ctx, "B", in("5"))
	require.NoError(t, err)
	_, err = h.svc.SubmitWithdrawal(ctx, "B", in("5"))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.True(t, h.user(t, "B").WalletBalance.Equal(dec("3")))
}

func TestDeposit_ReferralBonusPaidOnce(t *testing.T) {
	d := member("D", "Dan")
	d.ReferredBy = "C"
	h := newHarness(t, member("C", "Cara"), d)
	ctx := context.Background()

	approveDeposit := func(amount string) {
		req, err := h.svc.SubmitDeposit(ctx, "D", dec(amount), "ref")
		require.NoError(t, err)
		_, err = h.svc.Approve(ctx, req.Id)
		require.NoError(t, err)
	}

	approveDeposit("5")
	c, dd := h.user(t, "C"), h.user(t, "D")
	assert.True(t, dd.WalletBalance.Equal(dec("5")))
	assert.True(t, c.WalletBalance.Equal(dec("1")))
	assert.True(t, c.ReferralEarnings.Equal(dec("1")))
	assert.True(t, dd.ReferralBonusPaid)

	approveDeposit("5")
	c, dd = h.user(t, "C"), h.user(t, "D")
	assert.True(t, dd.WalletBalance.Equal(dec("10")))
	assert.True(t, c.WalletBalance.Equal(dec("1")), "no second referral bonus")
	assert.True(t, c.ReferralEarnings.Equal(dec("1")))
}

func TestPremium_ApproveActivatesAndCredits(t *testing.T) {
	h := newHarness(t, member("A", "Ama"))
	ctx := context.Background()

	_, err := h.svc.SubmitPremium(ctx, "A", "", "ref")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	req, err := h.svc.SubmitPremium(ctx, "A", "monthly", "MOMO-123")
	require.NoError(t, err)
	assert.False(t, h.user(t, "A").IsPremium)

	_, err = h.svc.Approve(ctx, req.Id)
	require.NoError(t, err)

	a := h.user(t, "A")
	assert.True(t, a.IsPremium)
	assert.Equal(t, testNow.Add(30*24*time.Hour), a.PremiumExpiry)
	assert.True(t, a.WalletBalance.Equal(dec("1")))
	assert.Equal(t, "Yard+ Active! $1.00 Bonus Added. Expires in 30 days.", a.Notifications[0])
}

func TestPremium_RejectHasNoEffect(t *testing.T) {
	h := newHarness(t, member("A", "Ama"))
	ctx := context.Background()

	req, err := h.svc.SubmitPremium(ctx, "A", "monthly", "MOMO-123")
	require.NoError(t, err)
	rejected, err := h.svc.Reject(ctx, req.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	a := h.user(t, "A")
	assert.False(t, a.IsPremium)
	assert.True(t, a.WalletBalance.IsZero())
}

func TestMaintenanceBlocksSubmissions(t *testing.T) {
	h := newHarness(t, member("A", "Ama"))
	ctx := context.Background()
	_, err := h.settings.ToggleMaintenance(ctx)
	require.NoError(t, err)

	_, err = h.svc.SubmitDeposit(ctx, "A", dec("10"), "X")
	assert.ErrorIs(t, err, models.ErrMaintenance)
}

func TestPostMessage_OwnerOrAdminOnly(t *testing.T) {
	admin := member("ADM", "Staff")
	admin.Role = models.RoleAdmin
	h := newHarness(t, member("A", "Ama"), member("E", "Eve"), admin)
	ctx := context.Background()

	req, err := h.svc.SubmitDeposit(ctx, "A", dec("3"), "X")
	require.NoError(t, err)

	owner, staff, other := h.user(t, "A"), h.user(t, "ADM"), h.user(t, "E")

	_, err = h.svc.PostMessage(ctx, owner, req.Id, "sent it")
	require.NoError(t, err)
	updated, err := h.svc.PostMessage(ctx, staff, req.Id, "checking")
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, "Staff", updated.Messages[1].SenderName)
	assert.Equal(t, models.StatusPending, updated.Status)

	_, err = h.svc.PostMessage(ctx, other, req.Id, "hi")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = h.svc.Get(ctx, other, req.Id)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	list, err := h.svc.List(ctx, store.RequestFilter{UserId: "A"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
