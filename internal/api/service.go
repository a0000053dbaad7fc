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

// Package api is the operation boundary. Every exported call returns a
// models.Result; domain failures become result codes and never escape.
package api

import (
	"context"
	"fmt"

	"earnyard-ledger-go/internal/advisor"
	"earnyard-ledger-go/internal/auth"
	"earnyard-ledger-go/internal/interest"
	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/marketplace"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/support"
	"earnyard-ledger-go/internal/workflow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Advisor answers free-text questions. Implementations never fail; they fall
// back to canned replies.
type Advisor interface {
	GetGuidance(ctx context.Context, query string) string
	GetAdminGuidance(ctx context.Context, query string, snap advisor.Snapshot) string
}

// Deps wires the domain services behind the boundary.
type Deps struct {
	Store       store.Store
	Ledger      *ledger.Service
	Interest    *interest.Engine
	Referral    *referral.Engine
	Auth        *auth.Service
	Workflow    *workflow.Service
	Marketplace *marketplace.Service
	Moderation  *moderation.Service
	Settings    *settings.Service
	Support     *support.Service
	Advisor     Advisor
}

type Service struct {
	store       store.Store
	ledger      *ledger.Service
	interest    *interest.Engine
	referral    *referral.Engine
	auth        *auth.Service
	workflow    *workflow.Service
	marketplace *marketplace.Service
	moderation  *moderation.Service
	settings    *settings.Service
	support     *support.Service
	advisor     Advisor
}

func NewService(d Deps) *Service {
	return &Service{
		store:       d.Store,
		ledger:      d.Ledger,
		interest:    d.Interest,
		referral:    d.Referral,
		auth:        d.Auth,
		workflow:    d.Workflow,
		marketplace: d.Marketplace,
		moderation:  d.Moderation,
		settings:    d.Settings,
		support:     d.Support,
		advisor:     d.Advisor,
	}
}

func (s *Service) HealthCheck(ctx context.Context) error {
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		_, err := tx.GetSettings(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// finish turns an operation outcome into a Result. On success the balance of
// userId is re-read so callers always see the committed wallet.
func (s *Service) finish(ctx context.Context, op, userId string, data any, err error) *models.Result {
	if err != nil {
		code := models.ErrorCode(err)
		if code == models.CodeInternal {
			zap.L().Error("Operation failed", zap.String("op", op), zap.String("user_id", userId), zap.Error(err))
			return &models.Result{Success: false, Code: code, Error: "internal error"}
		}
		zap.L().Warn("Operation rejected",
			zap.String("op", op),
			zap.String("user_id", userId),
			zap.String("code", code),
			zap.Error(err))
		return models.Fail(err)
	}

	balance := decimal.Zero
	if userId != "" {
		if b, err := s.balanceOf(ctx, userId); err != nil {
			zap.L().Error("Failed to get updated balance", zap.String("user_id", userId), zap.Error(err))
		} else {
			balance = b
		}
	}
	return models.Ok(userId, balance, data)
}

func (s *Service) balanceOf(ctx context.Context, userId string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, userId)
		if err != nil {
			return err
		}
		balance = user.WalletBalance
		return nil
	})
	return balance, err
}

func requireAdmin(actor *models.User) error {
	if actor == nil || !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", models.ErrUnauthorized)
	}
	return nil
}

func requireActor(actor *models.User) error {
	if actor == nil {
		return fmt.Errorf("%w: no session", models.ErrUnauthorized)
	}
	return nil
}
