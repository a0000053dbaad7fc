// Package settings owns the admin-editable platform configuration: display
// rates, the daily boost rate, maintenance mode, broadcasts and the ad campaign.
package settings

import (
	"context"
	"fmt"
	"strings"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	store  store.Store
	policy models.Policy
}

func NewService(st store.Store, policy models.Policy) *Service {
	return &Service{store: st, policy: policy}
}

// Defaults returns the settings used before an admin saves any.
func (s *Service) Defaults() models.PlatformSettings {
	return models.PlatformSettings{
		DailyInterestRate: s.policy.DefaultDailyInterestRate,
		DepositRate:       s.policy.DefaultDepositRate,
		WithdrawalRate:    s.policy.DefaultWithdrawalRate,
	}
}

// Current reads the effective settings inside an existing unit.
func (s *Service) Current(ctx context.Context, tx store.Tx) (*models.PlatformSettings, error) {
	saved, err := tx.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		defaults := s.Defaults()
		return &defaults, nil
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var out *models.PlatformSettings
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		out, err = s.Current(ctx, tx)
		return err
	})
	return out, err
}

// Rates carries an admin rate update.
type Rates struct {
	DailyInterestRate decimal.Decimal
	DepositRate       decimal.Decimal
	WithdrawalRate    decimal.Decimal
}

func (s *Service) UpdateRates(ctx context.Context, rates Rates) (*models.PlatformSettings, error) {
	if rates.DailyInterestRate.IsNegative() || rates.DailyInterestRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: daily rate %s outside [0, 1]", models.ErrInvalidAmount, rates.DailyInterestRate.String())
	}
	if !rates.DepositRate.IsPositive() || !rates.WithdrawalRate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rates must be positive", models.ErrInvalidAmount)
	}

	return s.mutate(ctx, func(cfg *models.PlatformSettings) {
		cfg.DailyInterestRate = rates.DailyInterestRate
		cfg.DepositRate = rates.DepositRate
		cfg.WithdrawalRate = rates.WithdrawalRate
		zap.L().Info("Platform rates updated",
			zap.String("daily_interest_rate", rates.DailyInterestRate.String()),
			zap.String("deposit_rate", rates.DepositRate.String()),
			zap.String("withdrawal_rate", rates.WithdrawalRate.String()))
	})
}

func (s *Service) ToggleMaintenance(ctx context.Context) (*models.PlatformSettings, error) {
	return s.mutate(ctx, func(cfg *models.PlatformSettings) {
		cfg.MaintenanceMode = !cfg.MaintenanceMode
		zap.L().Info("Maintenance mode toggled", zap.Bool("maintenance_mode", cfg.MaintenanceMode))
	})
}

// Broadcast prepends a platform-wide notification.
func (s *Service) Broadcast(ctx context.Context, text string) (*models.PlatformSettings, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty broadcast", models.ErrInvalidRequest)
	}
	return s.mutate(ctx, func(cfg *models.PlatformSettings) {
		cfg.Notifications = append([]string{text}, cfg.Notifications...)
	})
}

// PublishCampaign replaces the active ad campaign with a freshly identified one.
func (s *Service) PublishCampaign(ctx context.Context, campaign models.Campaign) (*models.PlatformSettings, error) {
	if strings.TrimSpace(campaign.Title) == "" {
		return nil, fmt.Errorf("%w: campaign title required", models.ErrInvalidRequest)
	}
	if campaign.RewardAmount.IsNegative() {
		return nil, fmt.Errorf("%w: negative campaign reward", models.ErrInvalidAmount)
	}
	campaign.Id = "AD-" + uuid.New().String()

	return s.mutate(ctx, func(cfg *models.PlatformSettings) {
		cfg.ActiveCampaign = &campaign
		zap.L().Info("Campaign published",
			zap.String("campaign_id", campaign.Id),
			zap.Bool("is_active", campaign.IsActive))
	})
}

func (s *Service) mutate(ctx context.Context, fn func(cfg *models.PlatformSettings)) (*models.PlatformSettings, error) {
	var out models.PlatformSettings
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		current, err := s.Current(ctx, tx)
		if err != nil {
			return err
		}
		out = current.Clone()
		fn(&out)
		return tx.SaveSettings(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
