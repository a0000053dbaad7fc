package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
)

func scanRequest(row rowScanner) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := row.Scan(&req.Id, &req.UserId, &req.UserName, &req.Type, &req.Amount, &req.Status,
		&req.ExternalReference, &req.Method, &req.Address, &req.AccountName, &req.FeeAmount,
		&req.LocalAmount, &req.PlanTier, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (t *sqlTx) loadMessages(ctx context.Context, req *models.ApprovalRequest) error {
	rows, err := t.tx.QueryContext(ctx, queryGetMessages, req.Id)
	if err != nil {
		return fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	req.Messages = []models.P2PMessage{}
	for rows.Next() {
		var msg models.P2PMessage
		if err := rows.Scan(&msg.SenderId, &msg.SenderName, &msg.Text, &msg.Timestamp); err != nil {
			return fmt.Errorf("failed to scan message: %w", err)
		}
		req.Messages = append(req.Messages, msg)
	}
	return rows.Err()
}

func (t *sqlTx) CreateRequest(ctx context.Context, req *models.ApprovalRequest) error {
	_, err := t.tx.ExecContext(ctx, queryInsertRequest,
		req.Id, req.UserId, req.UserName, req.Type, req.Amount.String(), req.Status,
		req.ExternalReference, req.Method, req.Address, req.AccountName,
		req.FeeAmount.String(), req.LocalAmount.String(), req.PlanTier, req.CreatedAt, req.ResolvedAt)
	if err != nil {
		return mapWriteError(err, "request "+req.Id)
	}

	for _, msg := range req.Messages {
		if err := t.AppendMessage(ctx, req.Id, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *sqlTx) GetRequest(ctx context.Context, requestId string) (*models.ApprovalRequest, error) {
	req, err := scanRequest(t.tx.QueryRowContext(ctx, queryGetRequest, requestId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("request", requestId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	if err := t.loadMessages(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (t *sqlTx) ListRequests(ctx context.Context, filter store.RequestFilter) ([]models.ApprovalRequest, error) {
	var conds []string
	var args []any
	if filter.UserId != "" {
		conds, args = append(conds, "user_id = ?"), append(args, filter.UserId)
	}
	if filter.Type != "" {
		conds, args = append(conds, "type = ?"), append(args, filter.Type)
	}
	if filter.Status != "" {
		conds, args = append(conds, "status = ?"), append(args, filter.Status)
	}

	rows, err := t.tx.QueryContext(ctx, where(queryListRequests, conds)+" ORDER BY rowid DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}

	var requests []models.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating request rows: %w", err)
	}
	rows.Close()

	// Threads are loaded after the cursor is closed; the transaction holds one connection.
	for i := range requests {
		if err := t.loadMessages(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (t *sqlTx) UpdateRequestStatus(ctx context.Context, requestId string, status models.RequestStatus, resolvedAt time.Time) error {
	result, err := t.tx.ExecContext(ctx, queryUpdateRequestStatus, status, resolvedAt, requestId)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("request", requestId)
	}
	return nil
}

func (t *sqlTx) AppendMessage(ctx context.Context, requestId string, msg models.P2PMessage) error {
	_, err := t.tx.ExecContext(ctx, queryInsertMessage, requestId, msg.SenderId, msg.SenderName, msg.Text, msg.Timestamp)
	if err != nil {
		if isForeignKeyViolation(err) {
			return notFound("request", requestId)
		}
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}
