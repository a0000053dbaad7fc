package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	codePrefix   = "REF-"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxAttempts  = 10
)

var ErrCodeSpaceExhausted = errors.New("unable to generate a unique referral code")

type Engine struct {
	ledger *ledger.Service
	policy models.Policy
}

func NewEngine(ledgerService *ledger.Service, policy models.Policy) *Engine {
	return &Engine{ledger: ledgerService, policy: policy}
}

// GenerateCode returns a referral code no existing user holds.
func (e *Engine) GenerateCode(ctx context.Context, tx store.Tx) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		_, err = tx.GetUserByReferralCode(ctx, code)
		if errors.Is(err, models.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		zap.L().Debug("Referral code collision", zap.String("code", code))
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return codePrefix + string(buf), nil
}

// Attribute links newUser to the owner of code. Unknown codes and
// self-referrals are ignored; nothing is paid here.
func (e *Engine) Attribute(ctx context.Context, tx store.Tx, newUser *models.User, code string) error {
	if code == "" {
		return nil
	}
	referrer, err := tx.GetUserByReferralCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		zap.L().Info("Ignoring unknown referral code", zap.String("code", code))
		return nil
	}
	if err != nil {
		return err
	}
	if referrer.Id == newUser.Id {
		return nil
	}
	newUser.ReferredBy = referrer.Id
	return nil
}

// PayBonusOnce pays the referrer of referredId at most once, on the first
// qualifying deposit. It must run inside the same unit as the deposit credit
// so that the referrer credit and the latch commit together.
func (e *Engine) PayBonusOnce(ctx context.Context, tx store.Tx, referredId string, depositAmount decimal.Decimal) (bool, error) {
	referred, err := tx.GetUser(ctx, referredId)
	if err != nil {
		return false, err
	}
	if referred.ReferredBy == "" || referred.ReferralBonusPaid {
		return false, nil
	}
	if depositAmount.LessThan(e.policy.MinQualifyingDeposit) {
		return false, nil
	}

	referrer, err := tx.GetUser(ctx, referred.ReferredBy)
	if errors.Is(err, models.ErrNotFound) {
		zap.L().Warn("Referrer no longer exists", zap.String("referrer_id", referred.ReferredBy))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	bonus := e.policy.ReferralBonus
	if _, err := e.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
		UserId:    referrer.Id,
		Delta:     bonus,
		Type:      models.TxReferralBonus,
		Reference: referred.Id,
		Origin:    models.OriginSystem,
	}); err != nil {
		return false, fmt.Errorf("failed to credit referral bonus: %w", err)
	}

	referrer, err = tx.GetUser(ctx, referrer.Id)
	if err != nil {
		return false, err
	}
	referrer.ReferralEarnings = referrer.ReferralEarnings.Add(bonus)
	referrer.Notify(fmt.Sprintf("Referral Bonus: $%s earned from %s's first deposit.", bonus.StringFixed(2), referred.Name))
	if err := tx.UpdateUser(ctx, referrer); err != nil {
		return false, err
	}

	referred.ReferralBonusPaid = true
	if err := tx.UpdateUser(ctx, referred); err != nil {
		return false, err
	}

	zap.L().Info("Referral bonus paid",
		zap.String("referrer_id", referrer.Id),
		zap.String("referred_id", referred.Id),
		zap.String("bonus", bonus.String()))
	return true, nil
}

// Stats summarises a user's referral activity.
func (e *Engine) Stats(ctx context.Context, tx store.Tx, userId string) (*models.ReferralStats, error) {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	count, err := tx.CountReferrals(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}
	return &models.ReferralStats{Code: user.ReferralCode, Referred: count, Earnings: user.ReferralEarnings}, nil
}
