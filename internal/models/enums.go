package models

import "fmt"

// Role is the capability class of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// RequestType identifies the kind of approval request.
type RequestType string

const (
	RequestDeposit    RequestType = "deposit"
	RequestWithdrawal RequestType = "withdrawal"
	RequestPremium    RequestType = "premium"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestDeposit, RequestWithdrawal, RequestPremium:
		return true
	}
	return false
}

// RequestStatus is the approval workflow state. Approved, completed and
// rejected are terminal.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCompleted
}

// WithdrawalMethod is the payout rail named on a withdrawal request.
type WithdrawalMethod string

const (
	MethodMomo WithdrawalMethod = "momo"
	MethodUSDT WithdrawalMethod = "usdt"
)

// ParseWithdrawalMethod accepts the wire value of a payout rail.
func ParseWithdrawalMethod(s string) (WithdrawalMethod, error) {
	switch WithdrawalMethod(s) {
	case MethodMomo, MethodUSDT:
		return WithdrawalMethod(s), nil
	}
	return "", fmt.Errorf("%w: unknown withdrawal method %q", ErrInvalidRequest, s)
}

type OfferStatus string

const (
	OfferActive    OfferStatus = "active"
	OfferCompleted OfferStatus = "completed"
	OfferPending   OfferStatus = "pending"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketResponded TicketStatus = "responded"
)

// TransactionType labels a ledger audit row.
type TransactionType string

const (
	TxDeposit              TransactionType = "deposit"
	TxWithdrawal           TransactionType = "withdrawal"
	TxWithdrawalRefund     TransactionType = "withdrawal_refund"
	TxWithdrawalSettlement TransactionType = "withdrawal_settlement"
	TxInterest             TransactionType = "interest"
	TxReferralBonus        TransactionType = "referral_bonus"
	TxPremiumBonus         TransactionType = "premium_bonus"
	TxEscrowLock           TransactionType = "escrow_lock"
	TxTaskReward           TransactionType = "task_reward"
	TxAdminCredit          TransactionType = "admin_credit"
)

// Origin says who initiated a balance change. Frozen accounts reject
// user-originated changes only.
type Origin string

const (
	OriginUser   Origin = "user"
	OriginAdmin  Origin = "admin"
	OriginSystem Origin = "system"
)
