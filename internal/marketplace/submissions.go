package marketplace

import (
	"context"
	"fmt"
	"strings"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitProof records a pending submission from an engaged worker. A worker
// holds at most one pending or approved submission per offer.
func (s *Service) SubmitProof(ctx context.Context, workerId, offerId, proof string) (*models.TaskSubmission, error) {
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return nil, fmt.Errorf("%w: proof required", models.ErrInvalidRequest)
	}

	var sub *models.TaskSubmission
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		worker, err := s.activeUser(ctx, tx, workerId)
		if err != nil {
			return err
		}
		offer, err := tx.GetOffer(ctx, offerId)
		if err != nil {
			return err
		}
		if !acceptingWork(offer) {
			return fmt.Errorf("offer %s: %w", offerId, models.ErrOfferInactive)
		}

		engaged, err := tx.HasEngagement(ctx, offerId, worker.Id)
		if err != nil {
			return err
		}
		if !engaged {
			return fmt.Errorf("offer %s: %w", offerId, models.ErrNotEngaged)
		}

		previous, err := tx.ListSubmissions(ctx, store.SubmissionFilter{TaskId: offerId, UserId: worker.Id})
		if err != nil {
			return err
		}
		for _, p := range previous {
			if p.Status != models.SubmissionRejected {
				return fmt.Errorf("submission %s is %s: %w", p.Id, p.Status, models.ErrDuplicateSubmission)
			}
		}

		sub = &models.TaskSubmission{
			Id:          "SUB-" + uuid.New().String(),
			TaskId:      offerId,
			UserId:      worker.Id,
			Proof:       proof,
			Status:      models.SubmissionPending,
			SubmittedAt: s.now(),
		}
		return tx.CreateSubmission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Proof submitted",
		zap.String("submission_id", sub.Id),
		zap.String("offer_id", offerId),
		zap.String("user_id", workerId))
	return sub, nil
}

// Review settles a pending submission. Only the offer's creator may review;
// admins review platform offers. Approval pays the reward out of escrow.
func (s *Service) Review(ctx context.Context, reviewer *models.User, submissionId string, approve bool) (*models.TaskSubmission, error) {
	var sub *models.TaskSubmission
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		sub, err = tx.GetSubmission(ctx, submissionId)
		if err != nil {
			return err
		}
		offer, err := tx.GetOffer(ctx, sub.TaskId)
		if err != nil {
			return err
		}
		if !canReview(reviewer, offer) {
			return fmt.Errorf("%w: only the offer creator may review", models.ErrUnauthorized)
		}
		if sub.Status != models.SubmissionPending {
			return fmt.Errorf("submission %s is %s: %w", sub.Id, sub.Status, models.ErrAlreadyFinalized)
		}

		sub.ReviewedAt = s.now()
		if !approve {
			sub.Status = models.SubmissionRejected
			if err := tx.UpdateSubmission(ctx, sub); err != nil {
				return err
			}
			return notify(ctx, tx, sub.UserId, fmt.Sprintf("Task Rejected: %s", offer.Title))
		}

		if offer.CurrentParticipations >= offer.MaxParticipations {
			return fmt.Errorf("offer %s is full: %w", offer.Id, models.ErrOfferInactive)
		}

		if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId:    sub.UserId,
			Delta:     offer.Reward,
			Type:      models.TxTaskReward,
			Reference: sub.Id,
			Origin:    models.OriginSystem,
		}); err != nil {
			return err
		}
		if offer.CreatedBy != AdminCreator {
			if _, err := s.ledger.RecordPlatform(ctx, tx, ledger.PlatformEscrowAccount,
				offer.Reward.Neg(), models.TxTaskReward, sub.Id); err != nil {
				return err
			}
		}

		offer.CurrentParticipations++
		if offer.CurrentParticipations == offer.MaxParticipations {
			offer.Status = models.OfferCompleted
		}
		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}

		sub.Status = models.SubmissionApproved
		if err := tx.UpdateSubmission(ctx, sub); err != nil {
			return err
		}
		return notify(ctx, tx, sub.UserId, fmt.Sprintf("Task Approved: +$%s", offer.Reward.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Submission reviewed",
		zap.String("submission_id", sub.Id),
		zap.String("reviewer_id", reviewer.Id),
		zap.String("status", string(sub.Status)))
	return sub, nil
}

func (s *Service) ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]models.TaskSubmission, error) {
	var out []models.TaskSubmission
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListSubmissions(ctx, filter)
		return err
	})
	return out, err
}

// ReviewQueue returns pending submissions on offers the reviewer may review.
func (s *Service) ReviewQueue(ctx context.Context, reviewer *models.User) ([]models.TaskSubmission, error) {
	var out []models.TaskSubmission
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		pending, err := tx.ListSubmissions(ctx, store.SubmissionFilter{Status: models.SubmissionPending})
		if err != nil {
			return err
		}
		for _, sub := range pending {
			offer, err := tx.GetOffer(ctx, sub.TaskId)
			if err != nil {
				return err
			}
			if canReview(reviewer, offer) {
				out = append(out, sub)
			}
		}
		return nil
	})
	return out, err
}

func canReview(reviewer *models.User, offer *models.TaskOffer) bool {
	if offer.CreatedBy == AdminCreator {
		return reviewer.IsAdmin()
	}
	return offer.CreatedBy == reviewer.Id
}

func notify(ctx context.Context, tx store.Tx, userId, text string) error {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return err
	}
	user.Notify(text)
	return tx.UpdateUser(ctx, user)
}
