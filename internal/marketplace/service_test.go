package marketplace

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

type harness struct {
	svc    *Service
	store  store.Store
	ledger *ledger.Service
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newHarness(t *testing.T, users ...models.User) *harness {
	st := memory.New()
	t.Cleanup(st.Close)
	policy := models.DefaultPolicy()
	ledgerService := ledger.NewService()

	ctx := context.Background()
	require.NoError(t, st.Atomic(ctx, func(tx store.Tx) error {
		for i := range users {
			if err := tx.CreateUser(ctx, &users[i]); err != nil {
				return err
			}
		}
		return nil
	}))

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(st, ledgerService, settings.NewService(st, policy), policy).
		WithClock(func() time.Time { return now })
	return &harness{svc: svc, store: st, ledger: ledgerService}
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

func person(id string, creator bool) models.User {
	return models.User{Id: id, Name: id, Email: id + "@earnyard.test", ReferralCode: "REF-" + id, IsCreator: creator}
}

func TestCreateOffer_InsufficientFundsHasNoEffect(t *testing.T) {
	h := newHarness(t, person("E", true))
	h.fund(t, "E", "5")

	_, err := h.svc.CreateOffer(context.Background(), "E", OfferInput{
		Title: "Follow", Description: "Follow the page", Reward: dec("0.10"), MaxParticipations: 100,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.True(t, h.user(t, "E").WalletBalance.Equal(dec("5")))

	offers, err := h.svc.ListOffers(context.Background(), store.OfferFilter{})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestCreateOffer_BudgetTooLowHasNoEffect(t *testing.T) {
	h := newHarness(t, person("E", true))
	h.fund(t, "E", "5")

	_, err := h.svc.CreateOffer(context.Background(), "E", OfferInput{
		Title: "Like", Description: "Like a post", Reward: dec("0.01"), MaxParticipations: 99,
	})
	assert.ErrorIs(t, err, models.ErrBudgetTooLow)
	assert.True(t, h.user(t, "E").WalletBalance.Equal(dec("5")))
}

func TestCreateOffer_Guards(t *testing.T) {
	frozen := person("F", true)
	frozen.IsFrozen = true
	h := newHarness(t, person("W", false), frozen)
	h.fund(t, "W", "10")
	h.fund(t, "F", "10")
	ctx := context.Background()
	in := OfferInput{Title: "t", Description: "d", Reward: dec("1"), MaxParticipations: 2}

	_, err := h.svc.CreateOffer(ctx, "W", in)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = h.svc.CreateOffer(ctx, "F", in)
	assert.ErrorIs(t, err, models.ErrAccountFrozen)

	_, err = h.svc.CreateOffer(ctx, "W", OfferInput{Title: "t", Reward: dec("1"), MaxParticipations: 2})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestOfferLifecycle_EscrowReleasedPerApproval(t *testing.T) {
	h := newHarness(t, person("E", true), person("W1", false), person("W2", false), person("W3", false))
	h.fund(t, "E", "5")
	ctx := context.Background()

	offer, err := h.svc.CreateOffer(ctx, "E", OfferInput{
		Title: "Review app", Description: "Leave a review", Link: "https://example.test", Reward: dec("1"), MaxParticipations: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferActive, offer.Status)
	assert.True(t, offer.EscrowTotal.Equal(dec("2")))
	assert.True(t, h.user(t, "E").WalletBalance.Equal(dec("3")))

	_, err = h.svc.Engage(ctx, "E", offer.Id)
	assert.ErrorIs(t, err, models.ErrUnauthorized, "creators cannot work their own offers")

	_, err = h.svc.SubmitProof(ctx, "W1", offer.Id, "proof://1")
	assert.ErrorIs(t, err, models.ErrNotEngaged)

	var subs []*models.TaskSubmission
	for _, w := range []string{"W1", "W2", "W3"} {
		_, err := h.svc.Engage(ctx, w, offer.Id)
		require.NoError(t, err)
		_, err = h.svc.Engage(ctx, w, offer.Id)
		require.NoError(t, err, "engage is idempotent")
		sub, err := h.svc.SubmitProof(ctx, w, offer.Id, "proof://"+w)
		require.NoError(t, err)
		subs = append(subs, sub)
	}

	_, err = h.svc.SubmitProof(ctx, "W1", offer.Id, "again")
	assert.ErrorIs(t, err, models.ErrDuplicateSubmission)

	creator := h.user(t, "E")
	stranger := h.user(t, "W3")
	_, err = h.svc.Review(ctx, stranger, subs[0].Id, true)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	queue, err := h.svc.ReviewQueue(ctx, creator)
	require.NoError(t, err)
	assert.Len(t, queue, 3)

	for _, sub := range subs[:2] {
		reviewed, err := h.svc.Review(ctx, creator, sub.Id, true)
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionApproved, reviewed.Status)
	}
	_, err = h.svc.Review(ctx, creator, subs[2].Id, true)
	assert.ErrorIs(t, err, models.ErrOfferInactive)

	_, err = h.svc.Review(ctx, creator, subs[0].Id, false)
	assert.ErrorIs(t, err, models.ErrAlreadyFinalized)

	offers, err := h.svc.ListOffers(ctx, store.OfferFilter{CreatedBy: "E"})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, 2, offers[0].CurrentParticipations)
	assert.Equal(t, models.OfferCompleted, offers[0].Status)

	w1 := h.user(t, "W1")
	assert.True(t, w1.WalletBalance.Equal(dec("1")))
	assert.Equal(t, "Task Approved: +$1.00", w1.Notifications[0])
	assert.True(t, h.user(t, "W3").WalletBalance.IsZero())

	_, err = h.svc.Engage(ctx, "W3", offer.Id)
	assert.ErrorIs(t, err, models.ErrOfferInactive)

	require.NoError(t, h.store.Atomic(ctx, func(tx store.Tx) error {
		escrow, err := tx.SumTransactions(ctx, ledger.PlatformEscrowAccount)
		require.NoError(t, err)
		assert.True(t, escrow.IsZero())
		return nil
	}))
}

func TestReview_RejectAllowsResubmission(t *testing.T) {
	h := newHarness(t, person("E", true), person("W", false))
	h.fund(t, "E", "2")
	ctx := context.Background()

	offer, err := h.svc.CreateOffer(ctx, "E", OfferInput{Title: "t", Description: "d", Reward: dec("1"), MaxParticipations: 1})
	require.NoError(t, err)
	_, err = h.svc.Engage(ctx, "W", offer.Id)
	require.NoError(t, err)
	sub, err := h.svc.SubmitProof(ctx, "W", offer.Id, "blurry")
	require.NoError(t, err)

	rejected, err := h.svc.Review(ctx, h.user(t, "E"), sub.Id, false)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)
	assert.True(t, h.user(t, "W").WalletBalance.IsZero())

	_, err = h.svc.SubmitProof(ctx, "W", offer.Id, "clear")
	require.NoError(t, err)
}

func TestAdminOffer_PlatformFunded(t *testing.T) {
	admin := person("ADM", false)
	admin.Role = models.RoleAdmin
	h := newHarness(t, admin, person("W", false))
	ctx := context.Background()

	offer, err := h.svc.CreateOffer(ctx, "ADM", OfferInput{Title: "t", Description: "d", Reward: dec("0.5"), MaxParticipations: 4})
	require.NoError(t, err)
	assert.Equal(t, AdminCreator, offer.CreatedBy)
	assert.True(t, offer.EscrowTotal.IsZero())

	_, err = h.svc.Engage(ctx, "W", offer.Id)
	require.NoError(t, err)
	sub, err := h.svc.SubmitProof(ctx, "W", offer.Id, "p")
	require.NoError(t, err)

	_, err = h.svc.Review(ctx, h.user(t, "W"), sub.Id, true)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = h.svc.Review(ctx, h.user(t, "ADM"), sub.Id, true)
	require.NoError(t, err)
	assert.True(t, h.user(t, "W").WalletBalance.Equal(dec("0.5")))
}
