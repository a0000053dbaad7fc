// Package interest settles the compounding daily boost on idle balances. It
// runs lazily whenever a session is checked, never as a global sweep.
package interest

import (
	"context"
	"fmt"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compound returns the balance after days of boosts, where each day adds
// min(balance*rate, dailyCap) rounded to scale decimal places.
func Compound(b0, rate, dailyCap decimal.Decimal, days int, scale int32) decimal.Decimal {
	balance := b0
	for i := 0; i < days; i++ {
		balance = balance.Add(decimal.Min(balance.Mul(rate), dailyCap).Round(scale))
	}
	return balance
}

// SettingsReader supplies the admin-configured base rate.
type SettingsReader interface {
	Current(ctx context.Context, tx store.Tx) (*models.PlatformSettings, error)
}

type Engine struct {
	ledger   *ledger.Service
	settings SettingsReader
	policy   models.Policy
	now      func() time.Time
}

func NewEngine(ledgerService *ledger.Service, settings SettingsReader, policy models.Policy) *Engine {
	return &Engine{ledger: ledgerService, settings: settings, policy: policy, now: time.Now}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Harvest settles every full elapsed day since the last harvest in one ledger
// credit and returns the amount credited. It is a no-op for frozen accounts,
// empty wallets and when less than one interval has passed.
func (e *Engine) Harvest(ctx context.Context, tx store.Tx, userId string) (decimal.Decimal, error) {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	if user.IsFrozen || !user.WalletBalance.IsPositive() {
		return decimal.Zero, nil
	}

	now := e.now()
	since := user.LastInterestHarvest
	if since.IsZero() {
		since = user.CreatedAt
	}
	elapsed := now.Sub(since)
	if elapsed < e.policy.HarvestInterval {
		return decimal.Zero, nil
	}
	days := int(elapsed / e.policy.HarvestInterval)

	rate, dailyCap := e.policy.PremiumDailyInterestRate, e.policy.PremiumDailyBoostCap
	if !user.PremiumActive(now) {
		cfg, err := e.settings.Current(ctx, tx)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to read interest rate: %w", err)
		}
		rate, dailyCap = cfg.DailyInterestRate, e.policy.BaseDailyBoostCap
	}

	boost := Compound(user.WalletBalance, rate, dailyCap, days, e.policy.MoneyScale).Sub(user.WalletBalance)
	if boost.IsPositive() {
		_, err := e.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId:    userId,
			Delta:     boost,
			Type:      models.TxInterest,
			Reference: fmt.Sprintf("%d day(s)", days),
			Origin:    models.OriginSystem,
		})
		if err != nil {
			return decimal.Zero, err
		}
	}

	// Re-read so the harvest mark is written on top of the new version.
	user, err = tx.GetUser(ctx, userId)
	if err != nil {
		return decimal.Zero, err
	}
	user.LastInterestHarvest = now
	if err := tx.UpdateUser(ctx, user); err != nil {
		return decimal.Zero, err
	}

	zap.L().Info("Interest harvested",
		zap.String("user_id", userId),
		zap.Int("days", days),
		zap.String("rate", rate.String()),
		zap.String("boost", boost.String()))
	return boost, nil
}
