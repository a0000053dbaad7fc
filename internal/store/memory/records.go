package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

type userRecord struct {
	user models.User
	seq  int64
}

type requestRecord struct {
	req models.ApprovalRequest
	seq int64
}

type offerRecord struct {
	offer models.TaskOffer
	seq   int64
}

type engagementRecord struct {
	engagement models.Engagement
}

type submissionRecord struct {
	sub models.TaskSubmission
	seq int64
}

type ticketRecord struct {
	ticket models.SupportTicket
	seq    int64
}

type settingsRecord struct {
	settings models.PlatformSettings
}

type transactionRecord struct {
	tx models.Transaction
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

// newestFirst orders by descending insertion sequence.
func newestFirst[T any](items []T, seq func(T) int64) {
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(seq(b), seq(a))
	})
}

// --- Users ---

func (t *memTx) CreateUser(_ context.Context, user *models.User) error {
	st := t.read()
	if _, ok := st.users[user.Id]; ok {
		return fmt.Errorf("%w: user id %s", store.ErrDuplicateKey, user.Id)
	}
	for _, r := range st.users {
		if strings.EqualFold(r.user.Email, user.Email) {
			return fmt.Errorf("%w: email %s", store.ErrDuplicateKey, user.Email)
		}
		if user.ReferralCode != "" && r.user.ReferralCode == user.ReferralCode {
			return fmt.Errorf("%w: referral code %s", store.ErrDuplicateKey, user.ReferralCode)
		}
	}
	if user.WalletBalance.IsNegative() {
		return store.ErrNegativeBalance
	}

	user.Version = 1
	seq := t.next()
	t.write().users[user.Id] = userRecord{user: user.Clone(), seq: seq}
	return nil
}

func (t *memTx) GetUser(_ context.Context, userId string) (*models.User, error) {
	r, ok := t.read().users[userId]
	if !ok {
		return nil, notFound("user", userId)
	}
	u := r.user.Clone()
	return &u, nil
}

func (t *memTx) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, r := range t.read().users {
		if strings.EqualFold(r.user.Email, email) {
			u := r.user.Clone()
			return &u, nil
		}
	}
	return nil, notFound("user with email", email)
}

func (t *memTx) GetUserByReferralCode(_ context.Context, code string) (*models.User, error) {
	for _, r := range t.read().users {
		if r.user.ReferralCode == code {
			u := r.user.Clone()
			return &u, nil
		}
	}
	return nil, notFound("user with referral code", code)
}

func (t *memTx) ListUsers(_ context.Context) ([]models.User, error) {
	records := make([]userRecord, 0, len(t.read().users))
	for _, r := range t.read().users {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b userRecord) int { return cmp.Compare(a.seq, b.seq) })

	users := make([]models.User, len(records))
	for i, r := range records {
		users[i] = r.user.Clone()
	}
	return users, nil
}

func (t *memTx) CountReferrals(_ context.Context, referrerId string) (int, error) {
	count := 0
	for _, r := range t.read().users {
		if r.user.ReferredBy == referrerId {
			count++
		}
	}
	return count, nil
}

func (t *memTx) UpdateUser(_ context.Context, user *models.User) error {
	st := t.read()
	existing, ok := st.users[user.Id]
	if !ok {
		return notFound("user", user.Id)
	}
	for id, r := range st.users {
		if id != user.Id && strings.EqualFold(r.user.Email, user.Email) {
			return fmt.Errorf("%w: email %s", store.ErrDuplicateKey, user.Email)
		}
	}

	updated := user.Clone()
	updated.WalletBalance = existing.user.WalletBalance
	updated.Version = existing.user.Version + 1
	t.write().users[user.Id] = userRecord{user: updated, seq: existing.seq}

	user.WalletBalance = updated.WalletBalance
	user.Version = updated.Version
	return nil
}

func (t *memTx) SetBalance(_ context.Context, userId string, balance decimal.Decimal, expectedVersion int64) error {
	if balance.IsNegative() {
		return fmt.Errorf("user %s: %w", userId, store.ErrNegativeBalance)
	}
	existing, ok := t.read().users[userId]
	if !ok {
		return notFound("user", userId)
	}
	if existing.user.Version != expectedVersion {
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	updated := existing.user.Clone()
	updated.WalletBalance = balance
	updated.Version++
	t.write().users[userId] = userRecord{user: updated, seq: existing.seq}
	return nil
}

// --- Approval requests ---

func (t *memTx) CreateRequest(_ context.Context, req *models.ApprovalRequest) error {
	if _, ok := t.read().requests[req.Id]; ok {
		return fmt.Errorf("%w: request id %s", store.ErrDuplicateKey, req.Id)
	}
	seq := t.next()
	t.write().requests[req.Id] = requestRecord{req: req.Clone(), seq: seq}
	return nil
}

func (t *memTx) GetRequest(_ context.Context, requestId string) (*models.ApprovalRequest, error) {
	r, ok := t.read().requests[requestId]
	if !ok {
		return nil, notFound("request", requestId)
	}
	req := r.req.Clone()
	return &req, nil
}

func (t *memTx) ListRequests(_ context.Context, filter store.RequestFilter) ([]models.ApprovalRequest, error) {
	var records []requestRecord
	for _, r := range t.read().requests {
		if filter.UserId != "" && r.req.UserId != filter.UserId {
			continue
		}
		if filter.Type != "" && r.req.Type != filter.Type {
			continue
		}
		if filter.Status != "" && r.req.Status != filter.Status {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records, func(r requestRecord) int64 { return r.seq })

	out := make([]models.ApprovalRequest, len(records))
	for i, r := range records {
		out[i] = r.req.Clone()
	}
	return out, nil
}

func (t *memTx) UpdateRequestStatus(_ context.Context, requestId string, status models.RequestStatus, resolvedAt time.Time) error {
	existing, ok := t.read().requests[requestId]
	if !ok {
		return notFound("request", requestId)
	}
	updated := existing.req.Clone()
	updated.Status = status
	updated.ResolvedAt = resolvedAt
	t.write().requests[requestId] = requestRecord{req: updated, seq: existing.seq}
	return nil
}

func (t *memTx) AppendMessage(_ context.Context, requestId string, msg models.P2PMessage) error {
	existing, ok := t.read().requests[requestId]
	if !ok {
		return notFound("request", requestId)
	}
	updated := existing.req.Clone()
	updated.Messages = append(updated.Messages, msg)
	t.write().requests[requestId] = requestRecord{req: updated, seq: existing.seq}
	return nil
}

// --- Marketplace ---

func (t *memTx) CreateOffer(_ context.Context, offer *models.TaskOffer) error {
	if _, ok := t.read().offers[offer.Id]; ok {
		return fmt.Errorf("%w: offer id %s", store.ErrDuplicateKey, offer.Id)
	}
	seq := t.next()
	t.write().offers[offer.Id] = offerRecord{offer: *offer, seq: seq}
	return nil
}

func (t *memTx) GetOffer(_ context.Context, offerId string) (*models.TaskOffer, error) {
	r, ok := t.read().offers[offerId]
	if !ok {
		return nil, notFound("offer", offerId)
	}
	offer := r.offer
	return &offer, nil
}

func (t *memTx) ListOffers(_ context.Context, filter store.OfferFilter) ([]models.TaskOffer, error) {
	var records []offerRecord
	for _, r := range t.read().offers {
		if filter.CreatedBy != "" && r.offer.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.ExcludeCreatedBy != "" && r.offer.CreatedBy == filter.ExcludeCreatedBy {
			continue
		}
		if filter.Status != "" && r.offer.Status != filter.Status {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records, func(r offerRecord) int64 { return r.seq })

	out := make([]models.TaskOffer, len(records))
	for i, r := range records {
		out[i] = r.offer
	}
	return out, nil
}

func (t *memTx) UpdateOffer(_ context.Context, offer *models.TaskOffer) error {
	existing, ok := t.read().offers[offer.Id]
	if !ok {
		return notFound("offer", offer.Id)
	}
	t.write().offers[offer.Id] = offerRecord{offer: *offer, seq: existing.seq}
	return nil
}

func engagementKey(taskId, userId string) string {
	return taskId + "|" + userId
}

func (t *memTx) AddEngagement(_ context.Context, engagement models.Engagement) (bool, error) {
	key := engagementKey(engagement.TaskId, engagement.UserId)
	if _, ok := t.read().engagements[key]; ok {
		return false, nil
	}
	t.write().engagements[key] = engagementRecord{engagement: engagement}
	return true, nil
}

func (t *memTx) HasEngagement(_ context.Context, taskId, userId string) (bool, error) {
	_, ok := t.read().engagements[engagementKey(taskId, userId)]
	return ok, nil
}

func (t *memTx) CreateSubmission(_ context.Context, sub *models.TaskSubmission) error {
	if _, ok := t.read().submissions[sub.Id]; ok {
		return fmt.Errorf("%w: submission id %s", store.ErrDuplicateKey, sub.Id)
	}
	seq := t.next()
	t.write().submissions[sub.Id] = submissionRecord{sub: *sub, seq: seq}
	return nil
}

func (t *memTx) GetSubmission(_ context.Context, submissionId string) (*models.TaskSubmission, error) {
	r, ok := t.read().submissions[submissionId]
	if !ok {
		return nil, notFound("submission", submissionId)
	}
	sub := r.sub
	return &sub, nil
}

func (t *memTx) ListSubmissions(_ context.Context, filter store.SubmissionFilter) ([]models.TaskSubmission, error) {
	var records []submissionRecord
	for _, r := range t.read().submissions {
		if filter.TaskId != "" && r.sub.TaskId != filter.TaskId {
			continue
		}
		if filter.UserId != "" && r.sub.UserId != filter.UserId {
			continue
		}
		if filter.Status != "" && r.sub.Status != filter.Status {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records, func(r submissionRecord) int64 { return r.seq })

	out := make([]models.TaskSubmission, len(records))
	for i, r := range records {
		out[i] = r.sub
	}
	return out, nil
}

func (t *memTx) UpdateSubmission(_ context.Context, sub *models.TaskSubmission) error {
	existing, ok := t.read().submissions[sub.Id]
	if !ok {
		return notFound("submission", sub.Id)
	}
	t.write().submissions[sub.Id] = submissionRecord{sub: *sub, seq: existing.seq}
	return nil
}

// --- Support ---

func (t *memTx) CreateTicket(_ context.Context, ticket *models.SupportTicket) error {
	if _, ok := t.read().tickets[ticket.Id]; ok {
		return fmt.Errorf("%w: ticket id %s", store.ErrDuplicateKey, ticket.Id)
	}
	seq := t.next()
	t.write().tickets[ticket.Id] = ticketRecord{ticket: *ticket, seq: seq}
	return nil
}

func (t *memTx) GetTicket(_ context.Context, ticketId string) (*models.SupportTicket, error) {
	r, ok := t.read().tickets[ticketId]
	if !ok {
		return nil, notFound("ticket", ticketId)
	}
	ticket := r.ticket
	return &ticket, nil
}

func (t *memTx) ListTickets(_ context.Context, filter store.TicketFilter) ([]models.SupportTicket, error) {
	var records []ticketRecord
	for _, r := range t.read().tickets {
		if filter.UserId != "" && r.ticket.UserId != filter.UserId {
			continue
		}
		if filter.Status != "" && r.ticket.Status != filter.Status {
			continue
		}
		records = append(records, r)
	}
	newestFirst(records, func(r ticketRecord) int64 { return r.seq })

	out := make([]models.SupportTicket, len(records))
	for i, r := range records {
		out[i] = r.ticket
	}
	return out, nil
}

func (t *memTx) UpdateTicket(_ context.Context, ticket *models.SupportTicket) error {
	existing, ok := t.read().tickets[ticket.Id]
	if !ok {
		return notFound("ticket", ticket.Id)
	}
	t.write().tickets[ticket.Id] = ticketRecord{ticket: *ticket, seq: existing.seq}
	return nil
}

// --- Settings ---

func (t *memTx) GetSettings(_ context.Context) (*models.PlatformSettings, error) {
	r := t.read().settings
	if r == nil {
		return nil, nil
	}
	s := r.settings.Clone()
	return &s, nil
}

func (t *memTx) SaveSettings(_ context.Context, settings *models.PlatformSettings) error {
	t.write().settings = &settingsRecord{settings: settings.Clone()}
	return nil
}

// --- Ledger audit ---

func (t *memTx) InsertTransaction(_ context.Context, transaction *models.Transaction) error {
	for _, r := range t.read().transactions {
		if r.tx.Id == transaction.Id {
			return fmt.Errorf("%w: transaction id %s", store.ErrDuplicateKey, transaction.Id)
		}
	}
	w := t.write()
	w.transactions = append(w.transactions, transactionRecord{tx: *transaction})
	return nil
}

func (t *memTx) ListTransactions(_ context.Context, accountId string, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	all := t.read().transactions
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].tx.UserId == accountId {
			out = append(out, all[i].tx)
		}
	}

	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) SumTransactions(_ context.Context, accountId string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range t.read().transactions {
		if r.tx.UserId == accountId {
			sum = sum.Add(r.tx.Amount)
		}
	}
	return sum, nil
}
