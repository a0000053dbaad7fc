package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
)

func scanOffer(row rowScanner) (*models.TaskOffer, error) {
	var offer models.TaskOffer
	err := row.Scan(&offer.Id, &offer.Title, &offer.Description, &offer.Reward, &offer.Link,
		&offer.Status, &offer.CreatedBy, &offer.MaxParticipations, &offer.CurrentParticipations,
		&offer.EscrowTotal, &offer.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func scanSubmission(row rowScanner) (*models.TaskSubmission, error) {
	var sub models.TaskSubmission
	err := row.Scan(&sub.Id, &sub.TaskId, &sub.UserId, &sub.Proof, &sub.Status, &sub.SubmittedAt, &sub.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (t *sqlTx) CreateOffer(ctx context.Context, offer *models.TaskOffer) error {
	_, err := t.tx.ExecContext(ctx, queryInsertOffer,
		offer.Id, offer.Title, offer.Description, offer.Reward.String(), offer.Link, offer.Status,
		offer.CreatedBy, offer.MaxParticipations, offer.CurrentParticipations,
		offer.EscrowTotal.String(), offer.CreatedAt)
	if err != nil {
		return mapWriteError(err, "offer "+offer.Id)
	}
	return nil
}

func (t *sqlTx) GetOffer(ctx context.Context, offerId string) (*models.TaskOffer, error) {
	offer, err := scanOffer(t.tx.QueryRowContext(ctx, queryGetOffer, offerId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("offer", offerId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	return offer, nil
}

func (t *sqlTx) ListOffers(ctx context.Context, filter store.OfferFilter) ([]models.TaskOffer, error) {
	var conds []string
	var args []any
	if filter.CreatedBy != "" {
		conds, args = append(conds, "created_by = ?"), append(args, filter.CreatedBy)
	}
	if filter.ExcludeCreatedBy != "" {
		conds, args = append(conds, "created_by != ?"), append(args, filter.ExcludeCreatedBy)
	}
	if filter.Status != "" {
		conds, args = append(conds, "status = ?"), append(args, filter.Status)
	}

	rows, err := t.tx.QueryContext(ctx, where(queryListOffers, conds)+" ORDER BY rowid DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []models.TaskOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

func (t *sqlTx) UpdateOffer(ctx context.Context, offer *models.TaskOffer) error {
	result, err := t.tx.ExecContext(ctx, queryUpdateOffer,
		offer.Title, offer.Description, offer.Reward.String(), offer.Link, offer.Status,
		offer.MaxParticipations, offer.CurrentParticipations, offer.EscrowTotal.String(), offer.Id)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("offer", offer.Id)
	}
	return nil
}

func (t *sqlTx) AddEngagement(ctx context.Context, engagement models.Engagement) (bool, error) {
	result, err := t.tx.ExecContext(ctx, queryInsertEngagement, engagement.TaskId, engagement.UserId, engagement.EngagedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add engagement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n == 1, nil
}

func (t *sqlTx) HasEngagement(ctx context.Context, taskId, userId string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, queryHasEngagement, taskId, userId).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check engagement: %w", err)
	}
	return true, nil
}

func (t *sqlTx) CreateSubmission(ctx context.Context, sub *models.TaskSubmission) error {
	_, err := t.tx.ExecContext(ctx, queryInsertSubmission,
		sub.Id, sub.TaskId, sub.UserId, sub.Proof, sub.Status, sub.SubmittedAt, sub.ReviewedAt)
	if err != nil {
		return mapWriteError(err, "submission "+sub.Id)
	}
	return nil
}

func (t *sqlTx) GetSubmission(ctx context.Context, submissionId string) (*models.TaskSubmission, error) {
	sub, err := scanSubmission(t.tx.QueryRowContext(ctx, queryGetSubmission, submissionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("submission", submissionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}
	return sub, nil
}

func (t *sqlTx) ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]models.TaskSubmission, error) {
	var conds []string
	var args []any
	if filter.TaskId != "" {
		conds, args = append(conds, "task_id = ?"), append(args, filter.TaskId)
	}
	if filter.UserId != "" {
		conds, args = append(conds, "user_id = ?"), append(args, filter.UserId)
	}
	if filter.Status != "" {
		conds, args = append(conds, "status = ?"), append(args, filter.Status)
	}

	rows, err := t.tx.QueryContext(ctx, where(queryListSubmissions, conds)+" ORDER BY rowid DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.TaskSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (t *sqlTx) UpdateSubmission(ctx context.Context, sub *models.TaskSubmission) error {
	result, err := t.tx.ExecContext(ctx, queryUpdateSubmission, sub.Proof, sub.Status, sub.ReviewedAt, sub.Id)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("submission", sub.Id)
	}
	return nil
}
