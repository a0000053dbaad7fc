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

// Package ledger is the single write path for wallet balances. Every change
// produces one audit transaction in the caller's atomic unit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"earnyard-ledger-go/internal/metrics"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Platform accounts hold audit rows for funds that left user wallets.
const (
	PlatformSettlementAccount = "earnyard-settlement"
	PlatformEscrowAccount     = "earnyard-escrow"
)

// AdjustParams describes one signed balance change.
type AdjustParams struct {
	UserId    string
	Delta     decimal.Decimal
	Type      models.TransactionType
	Reference string
	Origin    models.Origin
}

type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// WithClock replaces the time source used to stamp audit rows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AdjustBalance applies p.Delta to the user's wallet. Negative results fail
// with ErrInsufficientFunds; user-originated changes on a frozen account fail
// with ErrAccountFrozen.
func (s *Service) AdjustBalance(ctx context.Context, tx store.Tx, p AdjustParams) (*models.Transaction, error) {
	if p.Delta.IsZero() {
		return nil, fmt.Errorf("%w: zero balance adjustment", models.ErrInvalidAmount)
	}

	user, err := tx.GetUser(ctx, p.UserId)
	if err != nil {
		return nil, err
	}

	if user.IsFrozen && p.Origin == models.OriginUser {
		metrics.LedgerRejections.WithLabelValues("frozen").Inc()
		return nil, fmt.Errorf("user %s: %w", p.UserId, models.ErrAccountFrozen)
	}

	before := user.WalletBalance
	after := before.Add(p.Delta)
	if after.IsNegative() {
		metrics.LedgerRejections.WithLabelValues("insufficient_funds").Inc()
		zap.L().Warn("Balance adjustment rejected",
			zap.String("user_id", p.UserId),
			zap.String("balance", before.String()),
			zap.String("delta", p.Delta.String()))
		return nil, fmt.Errorf("user %s balance %s, delta %s: %w",
			p.UserId, before.String(), p.Delta.String(), models.ErrInsufficientFunds)
	}

	if err := tx.SetBalance(ctx, p.UserId, after, user.Version); err != nil {
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}

	transaction := &models.Transaction{
		Id:            uuid.New().String(),
		UserId:        p.UserId,
		Type:          p.Type,
		Amount:        p.Delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		Origin:        p.Origin,
		Reference:     p.Reference,
		CreatedAt:     s.now(),
	}
	if err := tx.InsertTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	metrics.LedgerAdjustments.WithLabelValues(string(p.Type)).Inc()
	zap.L().Info("Balance adjusted",
		zap.String("user_id", p.UserId),
		zap.String("type", string(p.Type)),
		zap.String("delta", p.Delta.String()),
		zap.String("new_balance", after.String()),
		zap.String("reference", p.Reference))

	return transaction, nil
}

// RecordPlatform appends an audit row to a platform account. Platform
// accounts have no wallet and no non-negative constraint.
func (s *Service) RecordPlatform(ctx context.Context, tx store.Tx, account string, amount decimal.Decimal, txType models.TransactionType, reference string) (*models.Transaction, error) {
	before, err := tx.SumTransactions(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform balance: %w", err)
	}

	transaction := &models.Transaction{
		Id:            uuid.New().String(),
		UserId:        account,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before.Add(amount),
		Origin:        models.OriginSystem,
		Reference:     reference,
		CreatedAt:     s.now(),
	}
	if err := tx.InsertTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record platform transaction: %w", err)
	}

	zap.L().Debug("Platform transaction recorded",
		zap.String("account", account),
		zap.String("type", string(txType)),
		zap.String("amount", amount.String()))
	return transaction, nil
}

// History returns the account's audit rows, newest first.
func (s *Service) History(ctx context.Context, tx store.Tx, accountId string, limit, offset int) ([]models.Transaction, error) {
	history, err := tx.ListTransactions(ctx, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return history, nil
}

// ErrOutOfBalance reports a wallet that disagrees with its audit trail.
var ErrOutOfBalance = errors.New("wallet balance does not match audit trail")

// Reconcile checks that the stored balance equals the sum of audit amounts.
func (s *Service) Reconcile(ctx context.Context, tx store.Tx, userId string) error {
	user, err := tx.GetUser(ctx, userId)
	if err != nil {
		return err
	}
	sum, err := tx.SumTransactions(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to sum transactions: %w", err)
	}
	if !sum.Equal(user.WalletBalance) {
		return fmt.Errorf("user %s balance %s, audit %s: %w",
			userId, user.WalletBalance.String(), sum.String(), ErrOutOfBalance)
	}
	return nil
}
