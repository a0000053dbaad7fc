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

// Package workflow moves deposit, withdrawal and premium requests through
// pending and their terminal states, applying the ledger effects of each step.
package workflow

import (
	"context"
	"fmt"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/metrics"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
)

const (
	depositPrefix    = "TOP-"
	withdrawalPrefix = "WDR-"
	premiumPrefix    = "PRM-"
)

type Service struct {
	store    store.Store
	ledger   *ledger.Service
	referral *referral.Engine
	settings *settings.Service
	policy   models.Policy
	now      func() time.Time
}

func NewService(st store.Store, ledgerService *ledger.Service, referralEngine *referral.Engine, settingsService *settings.Service, policy models.Policy) *Service {
	return &Service{
		store:    st,
		ledger:   ledgerService,
		referral: referralEngine,
		settings: settingsService,
		policy:   policy,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// requireActiveUser loads the acting user and applies the moderation gate.
func (s *Service) requireActiveUser(ctx context.Context, tx store.Tx, userId string) (*models.User, *models.PlatformSettings, error) {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.settings.Current(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	if err := moderation.RequireActive(user, cfg); err != nil {
		return nil, nil, err
	}
	return user, cfg, nil
}

// Get returns a request visible to viewer: its owner or any admin.
func (s *Service) Get(ctx context.Context, viewer *models.User, requestId string) (*models.ApprovalRequest, error) {
	var out *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestId)
		if err != nil {
			return err
		}
		if req.UserId != viewer.Id && !viewer.IsAdmin() {
			return fmt.Errorf("%w: request %s belongs to another user", models.ErrUnauthorized, requestId)
		}
		out = req
		return nil
	})
	return out, err
}

func (s *Service) List(ctx context.Context, filter store.RequestFilter) ([]models.ApprovalRequest, error) {
	var out []models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.ListRequests(ctx, filter)
		return err
	})
	return out, err
}

// PostMessage appends to the request thread. Only the owner or an admin may
// post; the request state never changes.
func (s *Service) PostMessage(ctx context.Context, sender *models.User, requestId, text string) (*models.ApprovalRequest, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", models.ErrInvalidRequest)
	}

	var out *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		req, err := tx.GetRequest(ctx, requestId)
		if err != nil {
			return err
		}
		if req.UserId != sender.Id && !sender.IsAdmin() {
			return fmt.Errorf("%w: request %s belongs to another user", models.ErrUnauthorized, requestId)
		}

		msg := models.P2PMessage{SenderId: sender.Id, SenderName: sender.Name, Text: text, Timestamp: s.now()}
		if err := tx.AppendMessage(ctx, requestId, msg); err != nil {
			return err
		}
		out, err = tx.GetRequest(ctx, requestId)
		return err
	})
	return out, err
}

func (s *Service) transition(ctx context.Context, tx store.Tx, req *models.ApprovalRequest, status models.RequestStatus) error {
	resolvedAt := s.now()
	if err := tx.UpdateRequestStatus(ctx, req.Id, status, resolvedAt); err != nil {
		return err
	}
	req.Status, req.ResolvedAt = status, resolvedAt
	metrics.RequestTransitions.WithLabelValues(string(req.Type), string(status)).Inc()
	return nil
}

func (s *Service) notify(ctx context.Context, tx store.Tx, userId, text string) error {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return err
	}
	user.Notify(text)
	return tx.UpdateUser(ctx, user)
}

func newRequestId(prefix string) string {
	return prefix + uuid.New().String()
}
