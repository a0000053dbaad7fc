package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// User represents an account (a "node") and its wallet
type User struct {
	Id                  string          `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	Email               string          `db:"email" json:"email"`
	PasswordHash        string          `db:"password_hash" json:"-"`
	PhoneNumber         string          `db:"phone_number" json:"phone_number,omitempty"`
	Country             string          `db:"country" json:"country,omitempty"`
	Role                Role            `db:"role" json:"role"`
	WalletBalance       decimal.Decimal `db:"wallet_balance" json:"wallet_balance"`
	IsBanned            bool            `db:"is_banned" json:"is_banned"`
	IsFrozen            bool            `db:"is_frozen" json:"is_frozen"`
	IsCreator           bool            `db:"is_creator" json:"is_creator"`
	ReferralCode        string          `db:"referral_code" json:"referral_code"`
	ReferredBy          string          `db:"referred_by" json:"referred_by,omitempty"`
	ReferralEarnings    decimal.Decimal `db:"referral_earnings" json:"referral_earnings"`
	ReferralBonusPaid   bool            `db:"referral_bonus_paid" json:"referral_bonus_paid"`
	IsPremium           bool            `db:"is_premium" json:"is_premium"`
	PremiumExpiry       time.Time       `db:"premium_expiry" json:"premium_expiry,omitempty"`
	Notifications       []string        `db:"notifications" json:"notifications,omitempty"`
	LastInterestHarvest time.Time       `db:"last_interest_harvest" json:"last_interest_harvest"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	Version             int64           `db:"version" json:"-"`
}

// PremiumActive reports whether premium benefits apply at now.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumExpiry.IsZero() || now.Before(u.PremiumExpiry)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Notify prepends a targeted notification.
func (u *User) Notify(text string) {
	u.Notifications = append([]string{text}, u.Notifications...)
}

// Clone returns a copy that shares no slices with u.
func (u User) Clone() User {
	u.Notifications = slices.Clone(u.Notifications)
	return u
}

// P2PMessage is one entry in a request thread
type P2PMessage struct {
	SenderId   string    `db:"sender_id" json:"sender_id"`
	SenderName string    `db:"sender_name" json:"sender_name"`
	Text       string    `db:"text" json:"text"`
	Timestamp  time.Time `db:"created_at" json:"timestamp"`
}

// ApprovalRequest is a deposit, withdrawal or premium request awaiting staff review
type ApprovalRequest struct {
	Id                string           `db:"id" json:"id"`
	UserId            string           `db:"user_id" json:"user_id"`
	UserName          string           `db:"user_name" json:"user_name"`
	Type              RequestType      `db:"type" json:"type"`
	Amount            decimal.Decimal  `db:"amount" json:"amount"`
	Status            RequestStatus    `db:"status" json:"status"`
	ExternalReference string           `db:"external_reference" json:"external_reference,omitempty"`
	Method            WithdrawalMethod `db:"method" json:"method,omitempty"`
	Address           string           `db:"address" json:"address,omitempty"`
	AccountName       string           `db:"account_name" json:"account_name,omitempty"`
	FeeAmount         decimal.Decimal  `db:"fee_amount" json:"fee_amount"`
	LocalAmount       decimal.Decimal  `db:"local_amount" json:"local_amount"`
	PlanTier          string           `db:"plan_tier" json:"plan_tier,omitempty"`
	Messages          []P2PMessage     `json:"messages"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	ResolvedAt        time.Time        `db:"resolved_at" json:"resolved_at,omitempty"`
}

func (r ApprovalRequest) Clone() ApprovalRequest {
	r.Messages = slices.Clone(r.Messages)
	return r
}

// TaskOffer is a creator-funded mission with a capped number of paid completions
type TaskOffer struct {
	Id                    string          `db:"id" json:"id"`
	Title                 string          `db:"title" json:"title"`
	Description           string          `db:"description" json:"description"`
	Reward                decimal.Decimal `db:"reward" json:"reward"`
	Link                  string          `db:"link" json:"link,omitempty"`
	Status                OfferStatus     `db:"status" json:"status"`
	CreatedBy             string          `db:"created_by" json:"created_by"`
	MaxParticipations     int             `db:"max_participations" json:"max_participations"`
	CurrentParticipations int             `db:"current_participations" json:"current_participations"`
	EscrowTotal           decimal.Decimal `db:"escrow_total" json:"escrow_total"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}

// Engagement records that a worker started a task
type Engagement struct {
	TaskId    string    `db:"task_id" json:"task_id"`
	UserId    string    `db:"user_id" json:"user_id"`
	EngagedAt time.Time `db:"engaged_at" json:"engaged_at"`
}

// TaskSubmission is a worker's proof of completion
type TaskSubmission struct {
	Id          string           `db:"id" json:"id"`
	TaskId      string           `db:"task_id" json:"task_id"`
	UserId      string           `db:"user_id" json:"user_id"`
	Proof       string           `db:"proof" json:"proof"`
	Status      SubmissionStatus `db:"status" json:"status"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// SupportTicket is a complaint sent to staff outside of any request thread
type SupportTicket struct {
	Id        string       `db:"id" json:"id"`
	UserId    string       `db:"user_id" json:"user_id"`
	UserName  string       `db:"user_name" json:"user_name"`
	Subject   string       `db:"subject" json:"subject"`
	Content   string       `db:"content" json:"content"`
	Status    TicketStatus `db:"status" json:"status"`
	Response  string       `db:"response" json:"response,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Campaign is the promotional ad shown to users
type Campaign struct {
	Id           string          `json:"id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	CtaText      string          `json:"cta_text"`
	RewardAmount decimal.Decimal `json:"reward_amount"`
	IsActive     bool            `json:"is_active"`
}

// PlatformSettings holds the admin-editable global configuration
type PlatformSettings struct {
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate"`
	DepositRate       decimal.Decimal `json:"deposit_rate"`
	WithdrawalRate    decimal.Decimal `json:"withdrawal_rate"`
	MaintenanceMode   bool            `json:"maintenance_mode"`
	Notifications     []string        `json:"notifications"`
	ActiveCampaign    *Campaign       `json:"active_campaign,omitempty"`
}

func (s PlatformSettings) Clone() PlatformSettings {
	s.Notifications = slices.Clone(s.Notifications)
	if s.ActiveCampaign != nil {
		c := *s.ActiveCampaign
		s.ActiveCampaign = &c
	}
	return s
}

// Transaction represents an immutable ledger audit row
type Transaction struct {
	Id            string          `db:"id" json:"id"`
	UserId        string          `db:"user_id" json:"user_id"`
	Type          TransactionType `db:"transaction_type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Origin        Origin          `db:"origin" json:"origin"`
	Reference     string          `db:"reference" json:"reference,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
