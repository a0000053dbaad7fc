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

package api

import (
	"context"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitDeposit files a top-up claim against an off-platform payment
// reference. Nothing is credited until staff approve it.
func (s *Service) SubmitDeposit(ctx context.Context, actor *models.User, amount decimal.Decimal, reference string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "submit_deposit", "", nil, err)
	}
	zap.L().Info("Processing deposit request",
		zap.String("user_id", actor.Id),
		zap.String("amount", amount.String()),
		zap.String("external_reference", reference))

	req, err := s.workflow.SubmitDeposit(ctx, actor.Id, amount, reference)
	return s.finish(ctx, "submit_deposit", actor.Id, req, err)
}

// UpgradePremium files a Yard+ subscription request.
func (s *Service) UpgradePremium(ctx context.Context, actor *models.User, planTier, reference string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "upgrade_premium", "", nil, err)
	}
	req, err := s.workflow.SubmitPremium(ctx, actor.Id, planTier, reference)
	return s.finish(ctx, "upgrade_premium", actor.Id, req, err)
}

// ApproveRequest settles a pending request. The result carries the
// requester's balance after settlement.
func (s *Service) ApproveRequest(ctx context.Context, actor *models.User, requestId string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "approve_request", "", nil, err)
	}
	req, err := s.workflow.Approve(ctx, requestId)
	if err != nil {
		return s.finish(ctx, "approve_request", "", nil, err)
	}
	zap.L().Info("Request approved",
		zap.String("request_id", req.Id),
		zap.String("admin_id", actor.Id),
		zap.String("type", string(req.Type)))
	return s.finish(ctx, "approve_request", req.UserId, req, nil)
}

func (s *Service) RejectRequest(ctx context.Context, actor *models.User, requestId string) *models.Result {
	if err := requireAdmin(actor); err != nil {
		return s.finish(ctx, "reject_request", "", nil, err)
	}
	req, err := s.workflow.Reject(ctx, requestId)
	if err != nil {
		return s.finish(ctx, "reject_request", "", nil, err)
	}
	zap.L().Info("Request rejected",
		zap.String("request_id", req.Id),
		zap.String("admin_id", actor.Id),
		zap.String("type", string(req.Type)))
	return s.finish(ctx, "reject_request", req.UserId, req, nil)
}

func (s *Service) PostRequestMessage(ctx context.Context, actor *models.User, requestId, text string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "post_message", "", nil, err)
	}
	req, err := s.workflow.PostMessage(ctx, actor, requestId, text)
	return s.finish(ctx, "post_message", actor.Id, req, err)
}

func (s *Service) GetRequest(ctx context.Context, actor *models.User, requestId string) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "get_request", "", nil, err)
	}
	req, err := s.workflow.Get(ctx, actor, requestId)
	return s.finish(ctx, "get_request", actor.Id, req, err)
}

// ListRequests lists approval requests. Non-admins only ever see their own.
func (s *Service) ListRequests(ctx context.Context, actor *models.User, filter store.RequestFilter) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "list_requests", "", nil, err)
	}
	if !actor.IsAdmin() {
		filter.UserId = actor.Id
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return s.finish(ctx, "list_requests", actor.Id, nil, errInvalidFilter("type", string(filter.Type)))
	}
	reqs, err := s.workflow.List(ctx, filter)
	return s.finish(ctx, "list_requests", actor.Id, reqs, err)
}
