package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
)

func scanTicket(row rowScanner) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := row.Scan(&ticket.Id, &ticket.UserId, &ticket.UserName, &ticket.Subject, &ticket.Content,
		&ticket.Status, &ticket.Response, &ticket.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (t *sqlTx) CreateTicket(ctx context.Context, ticket *models.SupportTicket) error {
	_, err := t.tx.ExecContext(ctx, queryInsertTicket,
		ticket.Id, ticket.UserId, ticket.UserName, ticket.Subject, ticket.Content,
		ticket.Status, ticket.Response, ticket.CreatedAt)
	if err != nil {
		return mapWriteError(err, "ticket "+ticket.Id)
	}
	return nil
}

func (t *sqlTx) GetTicket(ctx context.Context, ticketId string) (*models.SupportTicket, error) {
	ticket, err := scanTicket(t.tx.QueryRowContext(ctx, queryGetTicket, ticketId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("ticket", ticketId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}
	return ticket, nil
}

func (t *sqlTx) ListTickets(ctx context.Context, filter store.TicketFilter) ([]models.SupportTicket, error) {
	var conds []string
	var args []any
	if filter.UserId != "" {
		conds, args = append(conds, "user_id = ?"), append(args, filter.UserId)
	}
	if filter.Status != "" {
		conds, args = append(conds, "status = ?"), append(args, filter.Status)
	}

	rows, err := t.tx.QueryContext(ctx, where(queryListTickets, conds)+" ORDER BY rowid DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.SupportTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (t *sqlTx) UpdateTicket(ctx context.Context, ticket *models.SupportTicket) error {
	result, err := t.tx.ExecContext(ctx, queryUpdateTicket,
		ticket.Subject, ticket.Content, ticket.Status, ticket.Response, ticket.Id)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("ticket", ticket.Id)
	}
	return nil
}

// GetSettings returns nil when the platform has never saved settings.
func (t *sqlTx) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	var payload string
	err := t.tx.QueryRowContext(ctx, queryGetSettings).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	var settings models.PlatformSettings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (t *sqlTx) SaveSettings(ctx context.Context, settings *models.PlatformSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, queryUpsertSettings, string(payload)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
