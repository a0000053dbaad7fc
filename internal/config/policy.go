package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"earnyard-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// policyFile mirrors policy.yaml. Omitted keys keep the built-in value.
type policyFile struct {
	Interest struct {
		DefaultDailyRate string `yaml:"default_daily_rate"`
		PremiumDailyRate string `yaml:"premium_daily_rate"`
		BaseDailyCap     string `yaml:"base_daily_cap"`
		PremiumDailyCap  string `yaml:"premium_daily_cap"`
		HarvestInterval  string `yaml:"harvest_interval"`
		MoneyScale       *int32 `yaml:"money_scale"`
	} `yaml:"interest"`
	Withdrawals struct {
		Minimum string `yaml:"minimum"`
		FeeRate string `yaml:"fee_rate"`
	} `yaml:"withdrawals"`
	Referrals struct {
		Bonus                string `yaml:"bonus"`
		MinQualifyingDeposit string `yaml:"min_qualifying_deposit"`
	} `yaml:"referrals"`
	Premium struct {
		Bonus  string `yaml:"bonus"`
		Period string `yaml:"period"`
	} `yaml:"premium"`
	Marketplace struct {
		MinCampaignBudget string `yaml:"min_campaign_budget"`
	} `yaml:"marketplace"`
	Moderation struct {
		MinAdminCredit string `yaml:"min_admin_credit"`
	} `yaml:"moderation"`
	Exchange struct {
		DepositRate    string `yaml:"deposit_rate"`
		WithdrawalRate string `yaml:"withdrawal_rate"`
	} `yaml:"exchange"`
}

// LoadPolicy reads the economics file. A missing file yields the built-in
// policy.
func LoadPolicy(policyPath string) (models.Policy, error) {
	policy := models.DefaultPolicy()

	if !filepath.IsAbs(policyPath) {
		wd, err := os.Getwd()
		if err != nil {
			return policy, fmt.Errorf("failed to get working directory: %w", err)
		}
		policyPath = filepath.Join(wd, policyPath)
	}

	data, err := os.ReadFile(policyPath)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("No policy file, using built-in policy", zap.String("path", policyPath))
		return policy, nil
	}
	if err != nil {
		return policy, fmt.Errorf("unable to read %s: %w", policyPath, err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy, fmt.Errorf("unable to parse %s: %w", policyPath, err)
	}

	p := &parser{}
	p.decimal("interest.default_daily_rate", file.Interest.DefaultDailyRate, &policy.DefaultDailyInterestRate)
	p.decimal("interest.premium_daily_rate", file.Interest.PremiumDailyRate, &policy.PremiumDailyInterestRate)
	p.decimal("interest.base_daily_cap", file.Interest.BaseDailyCap, &policy.BaseDailyBoostCap)
	p.decimal("interest.premium_daily_cap", file.Interest.PremiumDailyCap, &policy.PremiumDailyBoostCap)
	p.duration("interest.harvest_interval", file.Interest.HarvestInterval, &policy.HarvestInterval)
	if file.Interest.MoneyScale != nil {
		policy.MoneyScale = *file.Interest.MoneyScale
	}
	p.decimal("withdrawals.minimum", file.Withdrawals.Minimum, &policy.MinWithdrawal)
	p.decimal("withdrawals.fee_rate", file.Withdrawals.FeeRate, &policy.WithdrawalFeeRate)
	p.decimal("referrals.bonus", file.Referrals.Bonus, &policy.ReferralBonus)
	p.decimal("referrals.min_qualifying_deposit", file.Referrals.MinQualifyingDeposit, &policy.MinQualifyingDeposit)
	p.decimal("premium.bonus", file.Premium.Bonus, &policy.PremiumBonus)
	p.duration("premium.period", file.Premium.Period, &policy.PremiumPeriod)
	p.decimal("marketplace.min_campaign_budget", file.Marketplace.MinCampaignBudget, &policy.MinCampaignBudget)
	p.decimal("moderation.min_admin_credit", file.Moderation.MinAdminCredit, &policy.MinAdminCredit)
	p.decimal("exchange.deposit_rate", file.Exchange.DepositRate, &policy.DefaultDepositRate)
	p.decimal("exchange.withdrawal_rate", file.Exchange.WithdrawalRate, &policy.DefaultWithdrawalRate)
	if p.err != nil {
		return policy, fmt.Errorf("invalid policy %s: %w", policyPath, p.err)
	}

	if err := validatePolicy(policy); err != nil {
		return policy, fmt.Errorf("invalid policy %s: %w", policyPath, err)
	}
	zap.L().Info("Loaded policy file", zap.String("path", policyPath))
	return policy, nil
}

type parser struct {
	err error
}

func (p *parser) decimal(key, raw string, dst *decimal.Decimal) {
	if p.err != nil || raw == "" {
		return
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %q is not a decimal", key, raw)
		return
	}
	if d.IsNegative() {
		p.err = fmt.Errorf("%s: must not be negative", key)
		return
	}
	*dst = d
}

func (p *parser) duration(key, raw string, dst *time.Duration) {
	if p.err != nil || raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		p.err = fmt.Errorf("%s: %q is not a positive duration", key, raw)
		return
	}
	*dst = d
}

func validatePolicy(p models.Policy) error {
	one := decimal.NewFromInt(1)
	if p.DefaultDailyInterestRate.GreaterThan(one) || p.PremiumDailyInterestRate.GreaterThan(one) {
		return fmt.Errorf("daily interest rates must be within [0, 1]")
	}
	if p.MoneyScale < 0 || p.MoneyScale > 12 {
		return fmt.Errorf("money scale must be within [0, 12], got %d", p.MoneyScale)
	}
	if p.WithdrawalFeeRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("withdrawal fee rate must be below 1")
	}
	if !p.DefaultDepositRate.IsPositive() || !p.DefaultWithdrawalRate.IsPositive() {
		return fmt.Errorf("exchange rates must be positive")
	}
	return nil
}
