package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Advisor  AdvisorConfig
	Jobs     JobsConfig
	Policy   Policy
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // "sqlite" or "memory"
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP transport settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	LoginRateLimit  float64 // attempts per second per client
	LoginBurst      int
}

// AuthConfig holds session token and credential settings
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// AdvisorConfig holds the text-completion endpoint settings
type AdvisorConfig struct {
	Enabled      bool
	Endpoint     string
	APIKey       string
	Model        string
	ResponsePath string // gjson path to the completion text
	Timeout      time.Duration
}

// JobsConfig holds cron schedules for maintenance jobs
type JobsConfig struct {
	Enabled              bool
	PremiumSweepSchedule string
	ReconcileSchedule    string
}

// Policy holds the economic constants of the platform
type Policy struct {
	DefaultDailyInterestRate decimal.Decimal
	PremiumDailyInterestRate decimal.Decimal
	BaseDailyBoostCap        decimal.Decimal
	PremiumDailyBoostCap     decimal.Decimal
	HarvestInterval          time.Duration
	MoneyScale               int32 // decimal places kept on each daily boost
	MinWithdrawal            decimal.Decimal
	WithdrawalFeeRate        decimal.Decimal
	ReferralBonus            decimal.Decimal
	MinQualifyingDeposit     decimal.Decimal
	PremiumBonus             decimal.Decimal
	PremiumPeriod            time.Duration
	MinCampaignBudget        decimal.Decimal
	MinAdminCredit           decimal.Decimal
	DefaultDepositRate       decimal.Decimal
	DefaultWithdrawalRate    decimal.Decimal
}

// DefaultPolicy returns the platform's built-in economics.
func DefaultPolicy() Policy {
	return Policy{
		DefaultDailyInterestRate: decimal.RequireFromString("0.02"),
		PremiumDailyInterestRate: decimal.RequireFromString("0.04"),
		BaseDailyBoostCap:        decimal.NewFromInt(10),
		PremiumDailyBoostCap:     decimal.NewFromInt(20),
		HarvestInterval:          24 * time.Hour,
		MoneyScale:               4,
		MinWithdrawal:            decimal.NewFromInt(5),
		WithdrawalFeeRate:        decimal.RequireFromString("0.05"),
		ReferralBonus:            decimal.NewFromInt(1),
		MinQualifyingDeposit:     decimal.NewFromInt(1),
		PremiumBonus:             decimal.NewFromInt(1),
		PremiumPeriod:            30 * 24 * time.Hour,
		MinCampaignBudget:        decimal.NewFromInt(1),
		MinAdminCredit:           decimal.RequireFromString("0.1"),
		DefaultDepositRate:       decimal.RequireFromString("15.2"),
		DefaultWithdrawalRate:    decimal.RequireFromString("15.0"),
	}
}
