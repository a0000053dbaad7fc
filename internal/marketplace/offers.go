/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package marketplace runs creator-funded missions: the creator escrows the
// full payout up front and releases one reward per approved submission.
package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminCreator marks platform-funded offers.
const AdminCreator = "admin"

type Service struct {
	store    store.Store
	ledger   *ledger.Service
	settings *settings.Service
	policy   models.Policy
	now      func() time.Time
}

func NewService(st store.Store, ledgerService *ledger.Service, settingsService *settings.Service, policy models.Policy) *Service {
	return &Service{store: st, ledger: ledgerService, settings: settingsService, policy: policy, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OfferInput describes a new mission.
type OfferInput struct {
	Title             string
	Description       string
	Link              string
	Reward            decimal.Decimal
	MaxParticipations int
}

// CreateOffer escrows Reward*MaxParticipations from the creator and opens the
// offer. Admin offers are platform funded and skip escrow.
func (s *Service) CreateOffer(ctx context.Context, creatorId string, in OfferInput) (*models.TaskOffer, error) {
	in.Title, in.Description = strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: title and description required", models.ErrInvalidRequest)
	}
	if !in.Reward.IsPositive() || in.MaxParticipations < 1 {
		return nil, fmt.Errorf("%w: reward and participation cap must be positive", models.ErrInvalidAmount)
	}

	total := in.Reward.Mul(decimal.NewFromInt(int64(in.MaxParticipations)))
	if total.LessThan(s.policy.MinCampaignBudget) {
		return nil, fmt.Errorf("total budget %s below minimum %s: %w",
			total.StringFixed(2), s.policy.MinCampaignBudget.StringFixed(2), models.ErrBudgetTooLow)
	}

	var offer *models.TaskOffer
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		creator, err := tx.GetUser(ctx, creatorId)
		if err != nil {
			return err
		}
		cfg, err := s.settings.Current(ctx, tx)
		if err != nil {
			return err
		}
		if err := moderation.RequireActive(creator, cfg); err != nil {
			return err
		}
		if !creator.IsCreator && !creator.IsAdmin() {
			return fmt.Errorf("%w: creator access not activated", models.ErrUnauthorized)
		}

		offer = &models.TaskOffer{
			Id:                "T-" + uuid.New().String(),
			Title:             in.Title,
			Description:       in.Description,
			Reward:            in.Reward,
			Link:              strings.TrimSpace(in.Link),
			Status:            models.OfferActive,
			CreatedBy:         creator.Id,
			MaxParticipations: in.MaxParticipations,
			CreatedAt:         s.now(),
		}

		if creator.IsAdmin() {
			offer.CreatedBy = AdminCreator
		} else {
			if _, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
				UserId:    creator.Id,
				Delta:     total.Neg(),
				Type:      models.TxEscrowLock,
				Reference: offer.Id,
				Origin:    models.OriginUser,
			}); err != nil {
				return err
			}
			if _, err := s.ledger.RecordPlatform(ctx, tx, ledger.PlatformEscrowAccount, total, models.TxEscrowLock, offer.Id); err != nil {
				return err
			}
			offer.EscrowTotal = total
		}
		return tx.CreateOffer(ctx, offer)
	})
	if err != nil {
		zap.L().Warn("Offer creation rejected", zap.String("creator_id", creatorId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Offer created",
		zap.String("offer_id", offer.Id),
		zap.String("created_by", offer.CreatedBy),
		zap.String("reward", offer.Reward.String()),
		zap.Int("max_participations", offer.MaxParticipations),
		zap.String("escrow_total", offer.EscrowTotal.String()))
	return offer, nil
}

// Engage registers the worker on an active offer. Repeated calls succeed
// without effect.
func (s *Service) Engage(ctx context.Context, workerId, offerId string) (*models.TaskOffer, error) {
	var offer *models.TaskOffer
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		worker, err := s.activeUser(ctx, tx, workerId)
		if err != nil {
			return err
		}
		offer, err = tx.GetOffer(ctx, offerId)
		if err != nil {
			return err
		}
		if !acceptingWork(offer) {
			return fmt.Errorf("offer %s: %w", offerId, models.ErrOfferInactive)
		}
		if offer.CreatedBy == worker.Id {
			return fmt.Errorf("%w: cannot engage own offer", models.ErrUnauthorized)
		}

		created, err := tx.AddEngagement(ctx, models.Engagement{TaskId: offerId, UserId: worker.Id, EngagedAt: s.now()})
		if err != nil {
			return err
		}
		if created {
			zap.L().Info("Offer engaged", zap.String("offer_id", offerId), zap.String("user_id", worker.Id))
		}
		return nil
	})
	return offer, err
}

func (s *Service) ListOffers(ctx context.Context, filter store.OfferFilter) ([]models.TaskOffer, error) {
	var out []models.TaskOffer
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListOffers(ctx, filter)
		return err
	})
	return out, err
}

func (s *Service) activeUser(ctx context.Context, tx store.Tx, userId string) (*models.User, error) {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Current(ctx, tx)
	if err != nil {
		return nil, err
	}
	return user, moderation.RequireActive(user, cfg)
}

func acceptingWork(offer *models.TaskOffer) bool {
	return offer.Status == models.OfferActive && offer.CurrentParticipations < offer.MaxParticipations
}
