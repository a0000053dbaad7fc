package support

import (
	"context"
	"fmt"
	"strings"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Drafter produces a suggested staff reply for a ticket.
type Drafter interface {
	DraftSupportReply(ctx context.Context, ticket *models.SupportTicket) string
}

type Service struct {
	store   store.Store
	drafter Drafter
	now     func() time.Time
}

func NewService(st store.Store, drafter Drafter) *Service {
	return &Service{store: st, drafter: drafter, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OpenTicket files a complaint with staff. Frozen accounts may still open
// tickets.
func (s *Service) OpenTicket(ctx context.Context, userId, subject, content string) (*models.SupportTicket, error) {
	subject, content = strings.TrimSpace(subject), strings.TrimSpace(content)
	if subject == "" || content == "" {
		return nil, fmt.Errorf("%w: subject and content required", models.ErrInvalidRequest)
	}

	var ticket *models.SupportTicket
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, userId)
		if err != nil {
			return err
		}
		ticket = &models.SupportTicket{
			Id:        "TKT-" + strings.ToUpper(uuid.New().String()[:8]),
			UserId:    user.Id,
			UserName:  user.Name,
			Subject:   subject,
			Content:   content,
			Status:    models.TicketPending,
			CreatedAt: s.now(),
		}
		return tx.CreateTicket(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Support ticket opened", zap.String("ticket_id", ticket.Id), zap.String("user_id", userId))
	return ticket, nil
}

// Respond records the staff reply and notifies the ticket owner.
func (s *Service) Respond(ctx context.Context, ticketId, reply string) (*models.SupportTicket, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: reply required", models.ErrInvalidRequest)
	}

	var ticket *models.SupportTicket
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		ticket, err = tx.GetTicket(ctx, ticketId)
		if err != nil {
			return err
		}
		ticket.Response = reply
		ticket.Status = models.TicketResponded
		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return err
		}

		owner, err := tx.GetUser(ctx, ticket.UserId)
		if err != nil {
			return err
		}
		owner.Notify(fmt.Sprintf("Support replied: %s", ticket.Subject))
		return tx.UpdateUser(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Support ticket answered", zap.String("ticket_id", ticket.Id))
	return ticket, nil
}

// AutoRespond answers a ticket with a drafted reply. The draft is produced
// outside any atomic unit.
func (s *Service) AutoRespond(ctx context.Context, ticketId string) (*models.SupportTicket, error) {
	var ticket *models.SupportTicket
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		ticket, err = tx.GetTicket(ctx, ticketId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Respond(ctx, ticketId, s.drafter.DraftSupportReply(ctx, ticket))
}

func (s *Service) ListTickets(ctx context.Context, filter store.TicketFilter) ([]models.SupportTicket, error) {
	var out []models.SupportTicket
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListTickets(ctx, filter)
		return err
	})
	return out, err
}
