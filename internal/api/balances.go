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
	"sort"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
)

const (
	leaderboardSize    = 50
	defaultHistorySize = 20
	maxHistorySize     = 100
)

// GetWallet returns the balance view with a page of audit history.
func (s *Service) GetWallet(ctx context.Context, actor *models.User, limit, offset int) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "get_wallet", "", nil, err)
	}
	if limit <= 0 || limit > maxHistorySize {
		limit = defaultHistorySize
	}
	if offset < 0 {
		offset = 0
	}

	var wallet *models.Wallet
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, actor.Id)
		if err != nil {
			return err
		}
		history, err := s.ledger.History(ctx, tx, actor.Id, limit, offset)
		if err != nil {
			return err
		}
		stats, err := s.referral.Stats(ctx, tx, actor.Id)
		if err != nil {
			return err
		}
		wallet = &models.Wallet{
			Balance:          user.WalletBalance,
			ReferralEarnings: user.ReferralEarnings,
			ReferralCount:    stats.Referred,
			IsPremium:        user.IsPremium,
			Transactions:     history,
		}
		return nil
	})
	return s.finish(ctx, "get_wallet", actor.Id, wallet, err)
}

func (s *Service) GetReferralStats(ctx context.Context, actor *models.User) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "referral_stats", "", nil, err)
	}
	var stats *models.ReferralStats
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		stats, err = s.referral.Stats(ctx, tx, actor.Id)
		return err
	})
	return s.finish(ctx, "referral_stats", actor.Id, stats, err)
}

// Leaderboard ranks non-admin wallets by balance.
func (s *Service) Leaderboard(ctx context.Context) *models.Result {
	var users []models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		users, err = tx.ListUsers(ctx)
		return err
	})
	if err != nil {
		return s.finish(ctx, "leaderboard", "", nil, err)
	}

	ranked := make([]models.User, 0, len(users))
	for _, u := range users {
		if !u.IsAdmin() {
			ranked = append(ranked, u)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WalletBalance.GreaterThan(ranked[j].WalletBalance)
	})
	if len(ranked) > leaderboardSize {
		ranked = ranked[:leaderboardSize]
	}

	entries := make([]models.LeaderboardEntry, len(ranked))
	for i, u := range ranked {
		entries[i] = models.LeaderboardEntry{Rank: i + 1, Name: u.Name, Balance: u.WalletBalance, IsPremium: u.IsPremium}
	}
	return s.finish(ctx, "leaderboard", "", entries, nil)
}
