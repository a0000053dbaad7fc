package workflow

import (
	"context"
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Approve finalises a pending request and applies its ledger effect in the
// same unit. Terminal requests fail with ErrAlreadyFinalized.
func (s *Service) Approve(ctx context.Context, requestId string) (*models.ApprovalRequest, error) {
	return s.resolve(ctx, requestId, true)
}

// Reject finalises a pending request. Only withdrawals move money: the
// submission debit is refunded.
func (s *Service) Reject(ctx context.Context, requestId string) (*models.ApprovalRequest, error) {
	return s.resolve(ctx, requestId, false)
}

func (s *Service) resolve(ctx context.Context, requestId string, approve bool) (*models.ApprovalRequest, error) {
	var out *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestId)
		if err != nil {
			return err
		}
		if req.Status.Terminal() {
			return fmt.Errorf("request %s is %s: %w", req.Id, req.Status, models.ErrAlreadyFinalized)
		}

		switch {
		case approve && req.Type == models.RequestDeposit:
			err = s.approveDeposit(ctx, tx, req)
		case approve && req.Type == models.RequestWithdrawal:
			err = s.approveWithdrawal(ctx, tx, req)
		case approve && req.Type == models.RequestPremium:
			err = s.approvePremium(ctx, tx, req)
		case req.Type == models.RequestWithdrawal:
			err = s.rejectWithdrawal(ctx, tx, req)
		case req.Type.Valid():
			if err = s.transition(ctx, tx, req, models.StatusRejected); err == nil {
				err = s.notify(ctx, tx, req.UserId, fmt.Sprintf("%s Rejected", typeLabel(req.Type)))
			}
		default:
			err = fmt.Errorf("%w: unknown request type %q", models.ErrInvalidRequest, req.Type)
		}
		if err != nil {
			return err
		}

		out, err = tx.GetRequest(ctx, requestId)
		return err
	})
	if err != nil {
		zap.L().Warn("Request resolution failed",
			zap.String("request_id", requestId),
			zap.Bool("approve", approve),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Request resolved",
		zap.String("request_id", out.Id),
		zap.String("type", string(out.Type)),
		zap.String("status", string(out.Status)),
		zap.String("amount", out.Amount.String()))
	return out, nil
}

func typeLabel(t models.RequestType) string {
	switch t {
	case models.RequestDeposit:
		return "Deposit"
	case models.RequestPremium:
		return "Yard+ Upgrade"
	}
	return "Withdrawal"
}
