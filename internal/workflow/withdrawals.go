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

// WithdrawalInput carries the payout details a user supplies.
type WithdrawalInput struct {
	Amount      decimal.Decimal
	Method      models.WithdrawalMethod
	Address     string
	AccountName string
}

// SubmitWithdrawal debits the full amount immediately and records a pending
// request. A rejection refunds it, so concurrent requests can never exceed
// the real balance.
func (s *Service) SubmitWithdrawal(ctx context.Context, userId string, in WithdrawalInput) (*models.ApprovalRequest, error) {
	if in.Amount.LessThan(s.policy.MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum withdrawal is $%s", models.ErrInvalidAmount, s.policy.MinWithdrawal.StringFixed(2))
	}
	if _, err := models.ParseWithdrawalMethod(string(in.Method)); err != nil {
		return nil, err
	}
	in.Address, in.AccountName = strings.TrimSpace(in.Address), strings.TrimSpace(in.AccountName)
	if in.Address == "" || in.AccountName == "" {
		return nil, fmt.Errorf("%w: payment details required", models.ErrInvalidRequest)
	}

	var req *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, cfg, err := s.requireActiveUser(ctx, tx, userId)
		if err != nil {
			return err
		}

		now := s.now()
		feeRate := s.policy.WithdrawalFeeRate
		if user.PremiumActive(now) {
			feeRate = decimal.Zero
		}
		fee := in.Amount.Mul(feeRate)

		req = &models.ApprovalRequest{
			Id:          newRequestId(withdrawalPrefix),
			UserId:      user.Id,
			UserName:    user.Name,
			Type:        models.RequestWithdrawal,
			Amount:      in.Amount,
			Status:      models.StatusPending,
			Method:      in.Method,
			Address:     in.Address,
			AccountName: in.AccountName,
			FeeAmount:   fee,
			LocalAmount: in.Amount.Sub(fee).Mul(cfg.WithdrawalRate),
			CreatedAt:   now,
			Messages: []models.P2PMessage{{
				SenderId:   "system",
				SenderName: "System",
				Text:       "Withdrawal initiated.",
				Timestamp:  now,
			}},
		}

		if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId:    user.Id,
			Delta:     in.Amount.Neg(),
			Type:      models.TxWithdrawal,
			Reference: req.Id,
			Origin:    models.OriginUser,
		}); err != nil {
			return err
		}
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal submitted",
		zap.String("request_id", req.Id),
		zap.String("user_id", userId),
		zap.String("amount", in.Amount.String()),
		zap.String("fee", req.FeeAmount.String()),
		zap.String("method", string(in.Method)))
	return req, nil
}

// approveWithdrawal settles funds already debited at submission.
func (s *Service) approveWithdrawal(ctx context.Context, tx store.Tx, req *models.ApprovalRequest) error {
	if _, err := s.ledger.RecordPlatform(ctx, tx, ledger.PlatformSettlementAccount,
		req.Amount, models.TxWithdrawalSettlement, req.Id); err != nil {
		return err
	}
	if err := s.transition(ctx, tx, req, models.StatusCompleted); err != nil {
		return err
	}
	return s.notify(ctx, tx, req.UserId, fmt.Sprintf("Withdrawal Completed: $%s", req.Amount.StringFixed(2)))
}

// rejectWithdrawal reverses the submission debit in full.
func (s *Service) rejectWithdrawal(ctx context.Context, tx store.Tx, req *models.ApprovalRequest) error {
	if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
		UserId:    req.UserId,
		Delta:     req.Amount,
		Type:      models.TxWithdrawalRefund,
		Reference: req.Id,
		Origin:    models.OriginAdmin,
	}); err != nil {
		return err
	}
	if err := s.transition(ctx, tx, req, models.StatusRejected); err != nil {
		return err
	}
	return s.notify(ctx, tx, req.UserId, fmt.Sprintf("Withdrawal Rejected: $%s refunded", req.Amount.StringFixed(2)))
}
