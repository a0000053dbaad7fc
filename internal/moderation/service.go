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

package moderation

import (
	"context"
	"fmt"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequireActive gates every user-initiated mutation. Admins pass through
// maintenance mode.
func RequireActive(user *models.User, cfg *models.PlatformSettings) error {
	if user.IsBanned {
		return fmt.Errorf("user %s: %w", user.Id, models.ErrAccountBanned)
	}
	if user.IsFrozen {
		return fmt.Errorf("user %s: %w", user.Id, models.ErrAccountFrozen)
	}
	if cfg != nil && cfg.MaintenanceMode && !user.IsAdmin() {
		return models.ErrMaintenance
	}
	return nil
}

type Service struct {
	store  store.Store
	ledger *ledger.Service
	policy models.Policy
}

func NewService(st store.Store, ledgerService *ledger.Service, policy models.Policy) *Service {
	return &Service{store: st, ledger: ledgerService, policy: policy}
}

// ToggleFreeze flips the frozen flag and returns the updated account.
func (s *Service) ToggleFreeze(ctx context.Context, userId string) (*models.User, error) {
	return s.toggle(ctx, userId, func(u *models.User) {
		u.IsFrozen = !u.IsFrozen
		zap.L().Info("Account freeze toggled", zap.String("user_id", u.Id), zap.Bool("is_frozen", u.IsFrozen))
	})
}

// ToggleBan strikes or reinstates an account.
func (s *Service) ToggleBan(ctx context.Context, userId string) (*models.User, error) {
	return s.toggle(ctx, userId, func(u *models.User) {
		u.IsBanned = !u.IsBanned
		zap.L().Info("Account strike toggled", zap.String("user_id", u.Id), zap.Bool("is_banned", u.IsBanned))
	})
}

func (s *Service) toggle(ctx context.Context, userId string, flip func(u *models.User)) (*models.User, error) {
	var out *models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, userId)
		if err != nil {
			return err
		}
		if user.IsAdmin() {
			return fmt.Errorf("%w: admin accounts cannot be moderated", models.ErrUnauthorized)
		}
		flip(user)
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	return out, err
}

// CreditUser is the manual admin top-up. It applies to frozen accounts.
func (s *Service) CreditUser(ctx context.Context, userId string, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.LessThan(s.policy.MinAdminCredit) {
		return nil, fmt.Errorf("%w: credit %s below minimum %s",
			models.ErrInvalidAmount, amount.String(), s.policy.MinAdminCredit.String())
	}

	var out *models.Transaction
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		txn, err := s.ledger.AdjustBalance(ctx, tx, ledger.AdjustParams{
			UserId: userId,
			Delta:  amount,
			Type:   models.TxAdminCredit,
			Origin: models.OriginAdmin,
		})
		if err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, userId)
		if err != nil {
			return err
		}
		user.Notify(fmt.Sprintf("Funded (Admin): $%s.", amount.StringFixed(2)))
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		out = txn
		return nil
	})
	return out, err
}
