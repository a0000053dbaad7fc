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
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/workflow"

	"go.uber.org/zap"
)

// SubmitWithdrawal debits the full amount immediately and queues the payout
// for staff. A rejection refunds it.
func (s *Service) SubmitWithdrawal(ctx context.Context, actor *models.User, in workflow.WithdrawalInput) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "submit_withdrawal", "", nil, err)
	}
	zap.L().Info("Processing withdrawal request",
		zap.String("user_id", actor.Id),
		zap.String("amount", in.Amount.String()),
		zap.String("method", string(in.Method)))

	req, err := s.workflow.SubmitWithdrawal(ctx, actor.Id, in)
	if err != nil {
		return s.finish(ctx, "submit_withdrawal", actor.Id, nil, err)
	}

	zap.L().Info("Withdrawal queued",
		zap.String("request_id", req.Id),
		zap.String("user_id", actor.Id),
		zap.String("fee_amount", req.FeeAmount.String()),
		zap.String("local_amount", req.LocalAmount.String()))
	return s.finish(ctx, "submit_withdrawal", actor.Id, req, nil)
}

func errInvalidFilter(field, value string) error {
	return fmt.Errorf("%w: unknown %s %q", models.ErrInvalidRequest, field, value)
}
