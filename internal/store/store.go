package store

import (
	"context"
	"errors"
	"time"

	"earnyard-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations. Missing records
// are reported by wrapping models.ErrNotFound.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrNegativeBalance        = errors.New("balance cannot be negative")
)

// RequestFilter selects approval requests. Zero fields match everything.
type RequestFilter struct {
	UserId string
	Type   models.RequestType
	Status models.RequestStatus
}

// OfferFilter selects task offers. Zero fields match everything.
type OfferFilter struct {
	CreatedBy        string
	ExcludeCreatedBy string
	Status           models.OfferStatus
}

// SubmissionFilter selects task submissions. Zero fields match everything.
type SubmissionFilter struct {
	TaskId string
	UserId string
	Status models.SubmissionStatus
}

// TicketFilter selects support tickets. Zero fields match everything.
type TicketFilter struct {
	UserId string
	Status models.TicketStatus
}

// Store is the contract every backend (memory, SQLite, ...) must satisfy.
type Store interface {
	// Atomic runs fn as one all-or-nothing unit. Writes made through tx are
	// visible to later units only if fn returns nil. Units never interleave.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	Close()
}

// Tx is the set of record operations available inside an atomic unit.
type Tx interface {
	// --- Users ---
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountReferrals(ctx context.Context, referrerId string) (int, error)
	// UpdateUser writes every field except WalletBalance and bumps Version.
	UpdateUser(ctx context.Context, user *models.User) error
	// SetBalance is the only write path for WalletBalance. It fails with
	// ErrNegativeBalance or ErrConcurrentModification when expectedVersion is stale.
	SetBalance(ctx context.Context, userId string, balance decimal.Decimal, expectedVersion int64) error

	// --- Approval requests ---
	CreateRequest(ctx context.Context, req *models.ApprovalRequest) error
	GetRequest(ctx context.Context, requestId string) (*models.ApprovalRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.ApprovalRequest, error)
	UpdateRequestStatus(ctx context.Context, requestId string, status models.RequestStatus, resolvedAt time.Time) error
	AppendMessage(ctx context.Context, requestId string, msg models.P2PMessage) error

	// --- Marketplace ---
	CreateOffer(ctx context.Context, offer *models.TaskOffer) error
	GetOffer(ctx context.Context, offerId string) (*models.TaskOffer, error)
	ListOffers(ctx context.Context, filter OfferFilter) ([]models.TaskOffer, error)
	UpdateOffer(ctx context.Context, offer *models.TaskOffer) error
	// AddEngagement reports false when the worker had already engaged.
	AddEngagement(ctx context.Context, engagement models.Engagement) (bool, error)
	HasEngagement(ctx context.Context, taskId, userId string) (bool, error)
	CreateSubmission(ctx context.Context, sub *models.TaskSubmission) error
	GetSubmission(ctx context.Context, submissionId string) (*models.TaskSubmission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.TaskSubmission, error)
	UpdateSubmission(ctx context.Context, sub *models.TaskSubmission) error

	// --- Support ---
	CreateTicket(ctx context.Context, ticket *models.SupportTicket) error
	GetTicket(ctx context.Context, ticketId string) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]models.SupportTicket, error)
	UpdateTicket(ctx context.Context, ticket *models.SupportTicket) error

	// --- Settings ---
	// GetSettings returns nil without error when nothing has been saved yet.
	GetSettings(ctx context.Context) (*models.PlatformSettings, error)
	SaveSettings(ctx context.Context, settings *models.PlatformSettings) error

	// --- Ledger audit ---
	InsertTransaction(ctx context.Context, transaction *models.Transaction) error
	ListTransactions(ctx context.Context, accountId string, limit, offset int) ([]models.Transaction, error)
	SumTransactions(ctx context.Context, accountId string) (decimal.Decimal, error)
}
