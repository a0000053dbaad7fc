package workflow

import (
	"context"
	"fmt"
	"strings"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitDeposit records a pending top-up. Funds are external and unverified,
// so the wallet is untouched until an admin approves.
func (s *Service) SubmitDeposit(ctx context.Context, userId string, amount decimal.Decimal, reference string) (*models.ApprovalRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", models.ErrInvalidAmount)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: deposit reference required", models.ErrInvalidRequest)
	}

	var req *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, cfg, err := s.requireActiveUser(ctx, tx, userId)
		if err != nil {
			return err
		}

		req = &models.ApprovalRequest{
			Id:                newRequestId(depositPrefix),
			UserId:            user.Id,
			UserName:          user.Name,
			Type:              models.RequestDeposit,
			Amount:            amount,
			Status:            models.StatusPending,
			ExternalReference: reference,
			LocalAmount:       amount.Mul(cfg.DepositRate),
			CreatedAt:         s.now(),
		}
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Deposit submitted",
		zap.String("request_id", req.Id),
		zap.String("user_id", userId),
		zap.String("amount", amount.String()),
		zap.String("external_reference", reference))
	return req, nil
}

func (s *Service) approveDeposit(ctx context.Context, tx store.Tx, req *models.ApprovalRequest) error {
	if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
		UserId:    req.UserId,
		Delta:     req.Amount,
		Type:      models.TxDeposit,
		Reference: req.Id,
		Origin:    models.OriginAdmin,
	}); err != nil {
		return err
	}

	if _, err := s.referral.PayBonusOnce(ctx, tx, req.UserId, req.Amount); err != nil {
		return err
	}

	if err := s.transition(ctx, tx, req, models.StatusApproved); err != nil {
		return err
	}
	return s.notify(ctx, tx, req.UserId, fmt.Sprintf("Deposit Approved: $%s", req.Amount.StringFixed(2)))
}
