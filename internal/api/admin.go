package api

import (
	"context"

	"earnyard-ledger-go/internal/advisor"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) FreezeUser(ctx context.Context, actor *models.User, userId string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "freeze_user", "", nil, err)
	}
	user, err := s.moderation.ToggleFreeze(ctx, userId)
	return s.finish(ctx, "freeze_user", userId, user, err)
}

func (s *Service) BanUser(ctx context.Context, actor *models.User, userId string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "ban_user", "", nil, err)
	}
	user, err := s.moderation.ToggleBan(ctx, userId)
	return s.finish(ctx, "ban_user", userId, user, err)
}

func (s *Service) CreditUser(ctx context.Context, actor *models.User, userId string, amount decimal.Decimal) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "credit_user", "", nil, err)
	}
	txn, err := s.moderation.CreditUser(ctx, userId, amount)
	if err == nil {
		zap.L().Info("Manual credit applied",
			zap.String("admin_id", actor.Id),
			zap.String("user_id", userId),
			zap.String("amount", amount.String()))
	}
	return s.finish(ctx, "credit_user", userId, txn, err)
}

func (s *Service) ListUsers(ctx context.Context, actor *models.User) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "list_users", "", nil, err)
	}
	var users []models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		users, err = tx.ListUsers(ctx)
		return err
	})
	return s.finish(ctx, "list_users", "", users, err)
}

// AdminStats summarises wallets and queues for the operator dashboard.
func (s *Service) AdminStats(ctx context.Context, actor *models.User) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "admin_stats", "", nil, err)
	}
	var stats *models.AdminStats
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		stats, err = collectStats(ctx, tx)
		return err
	})
	return s.finish(ctx, "admin_stats", "", stats, err)
}

func collectStats(ctx context.Context, tx store.Tx) (*models.AdminStats, error) {
	users, err := tx.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := tx.ListRequests(ctx, store.RequestFilter{Status: models.StatusPending})
	if err != nil {
		return nil, err
	}
	active, err := tx.ListOffers(ctx, store.OfferFilter{Status: models.OfferActive})
	if err != nil {
		return nil, err
	}
	tickets, err := tx.ListTickets(ctx, store.TicketFilter{Status: models.TicketPending})
	if err != nil {
		return nil, err
	}

	stats := &models.AdminStats{
		UserCount:    len(users),
		TotalBalance: decimal.Zero,
		PendingCount: len(pending),
		ActiveTasks:  len(active),
		OpenTickets:  len(tickets),
	}
	for _, u := range users {
		if !u.IsAdmin() {
			stats.TotalBalance = stats.TotalBalance.Add(u.WalletBalance)
		}
	}
	return stats, nil
}

// GetSettings is readable by every session; it carries broadcasts and the
// active campaign.
func (s *Service) GetSettings(ctx context.Context) *models.Result {
	cfg, err := s.settings.Get(ctx)
	return s.finish(ctx, "get_settings", "", cfg, err)
}

func (s *Service) UpdateRates(ctx context.Context, actor *models.User, rates settings.Rates) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "update_rates", "", nil, err)
	}
	cfg, err := s.settings.UpdateRates(ctx, rates)
	return s.finish(ctx, "update_rates", "", cfg, err)
}

func (s *Service) ToggleMaintenance(ctx context.Context, actor *models.User) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "toggle_maintenance", "", nil, err)
	}
	cfg, err := s.settings.ToggleMaintenance(ctx)
	return s.finish(ctx, "toggle_maintenance", "", cfg, err)
}

func (s *Service) Broadcast(ctx context.Context, actor *models.User, text string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "broadcast", "", nil, err)
	}
	cfg, err := s.settings.Broadcast(ctx, text)
	return s.finish(ctx, "broadcast", "", cfg, err)
}

func (s *Service) PublishCampaign(ctx context.Context, actor *models.User, campaign models.Campaign) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "publish_campaign", "", nil, err)
	}
	cfg, err := s.settings.PublishCampaign(ctx, campaign)
	return s.finish(ctx, "publish_campaign", "", cfg, err)
}

func (s *Service) OpenTicket(ctx context.Context, actor *models.User, subject, content string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "open_ticket", "", nil, err)
	}
	ticket, err := s.support.OpenTicket(ctx, actor.Id, subject, content)
	return s.finish(ctx, "open_ticket", actor.Id, ticket, err)
}

// RespondTicket answers a ticket. An empty reply asks the advisor for a
// draft.
func (s *Service) RespondTicket(ctx context.Context, actor *models.User, ticketId, reply string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "respond_ticket", "", nil, err)
	}
	var (
		ticket *models.SupportTicket
		err    error
	)
	if reply == "" {
		ticket, err = s.support.AutoRespond(ctx, ticketId)
	} else {
		ticket, err = s.support.Respond(ctx, ticketId, reply)
	}
	return s.finish(ctx, "respond_ticket", "", ticket, err)
}

// ListTickets returns every ticket to admins and only their own to users.
func (s *Service) ListTickets(ctx context.Context, actor *models.User) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "list_tickets", "", nil, err)
	}
	filter := store.TicketFilter{}
	if !actor.IsAdmin() {
		filter.UserId = actor.Id
	}
	tickets, err := s.support.ListTickets(ctx, filter)
	return s.finish(ctx, "list_tickets", actor.Id, tickets, err)
}

// GetGuidance asks the advisor. It always succeeds; advisor failures come
// back as a canned reply.
func (s *Service) GetGuidance(ctx context.Context, actor *models.User, query string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "get_guidance", "", nil, err)
	}
	if !actor.IsAdmin() {
		text := s.advisor.GetGuidance(ctx, query)
		return s.finish(ctx, "get_guidance", actor.Id, map[string]string{"response": text}, nil)
	}

	// Only the admin prompt carries platform state.
	var snap advisor.Snapshot
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		stats, err := collectStats(ctx, tx)
		if err != nil {
			return err
		}
		snap = advisor.Snapshot{UserCount: stats.UserCount, PendingApprovals: stats.PendingCount, ActiveTasks: stats.ActiveTasks}
		return nil
	})
	if err != nil {
		zap.L().Warn("Advisor snapshot unavailable", zap.Error(err))
	}

	text := s.advisor.GetAdminGuidance(ctx, query, snap)
	return s.finish(ctx, "get_guidance", actor.Id, map[string]string{"response": text}, nil)
}
