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

// SubmitPremium records a pending Yard+ upgrade paid for externally.
func (s *Service) SubmitPremium(ctx context.Context, userId, planTier, reference string) (*models.ApprovalRequest, error) {
	planTier, reference = strings.TrimSpace(planTier), strings.TrimSpace(reference)
	if planTier == "" || reference == "" {
		return nil, fmt.Errorf("%w: plan tier and reference required", models.ErrInvalidRequest)
	}

	var req *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, _, err := s.requireActiveUser(ctx, tx, userId)
		if err != nil {
			return err
		}
		req = &models.ApprovalRequest{
			Id:                newRequestId(premiumPrefix),
			UserId:            user.Id,
			UserName:          user.Name,
			Type:              models.RequestPremium,
			Amount:            decimal.Zero,
			Status:            models.StatusPending,
			ExternalReference: reference,
			PlanTier:          planTier,
			CreatedAt:         s.now(),
		}
		return tx.CreateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Premium upgrade submitted",
		zap.String("request_id", req.Id),
		zap.String("user_id", userId),
		zap.String("plan_tier", planTier))
	return req, nil
}

func (s *Service) approvePremium(ctx context.Context, tx store.Tx, req *models.ApprovalRequest) error {
	bonus := s.policy.PremiumBonus
	if bonus.IsPositive() {
		if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId:    req.UserId,
			Delta:     bonus,
			Type:      models.TxPremiumBonus,
			Reference: req.Id,
			Origin:    models.OriginAdmin,
		}); err != nil {
			return err
		}
	}

	user, err := tx.GetUser(ctx, req.UserId)
	if err != nil {
		return err
	}
	user.IsPremium = true
	user.PremiumExpiry = s.now().Add(s.policy.PremiumPeriod)
	user.Notify(fmt.Sprintf("Yard+ Active! $%s Bonus Added. Expires in %d days.",
		bonus.StringFixed(2), int(s.policy.PremiumPeriod.Hours()/24)))
	if err := tx.UpdateUser(ctx, user); err != nil {
		return err
	}

	return s.transition(ctx, tx, req, models.StatusApproved)
}
