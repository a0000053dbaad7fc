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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"earnyard-ledger-go/internal/common"
	"earnyard-ledger-go/internal/config"
	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers   int
	fundedUsers  int
	outOfBalance int
	total        decimal.Decimal
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printTransaction(t models.Transaction, isLast bool) {
	fmt.Printf("%s %-18s %12s -> %12s  (%s, %s, %s)\n",
		common.BoxPrefix(isLast),
		t.Type,
		t.Amount.StringFixed(2),
		common.FormatMoney(t.BalanceAfter),
		t.Origin,
		formatTransactionId(t.Id),
		t.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user models.User, auditStatus string) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s  v%d\n", user.Id, user.Version)
	fmt.Printf("│  Balance: %s  Audit: %s\n", common.FormatMoney(user.WalletBalance), auditStatus)
	if user.IsFrozen || user.IsBanned || user.IsPremium {
		fmt.Printf("│  Flags: frozen=%t banned=%t yard+=%t\n", user.IsFrozen, user.IsBanned, user.IsPremium)
	}
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, st store.Store, ledgerService *ledger.Service, user models.User, limit int) (bool, error) {
	var (
		history  []models.Transaction
		drifted  bool
		auditMsg = "ok"
	)
	err := st.Atomic(ctx, func(tx store.Tx) error {
		if err := ledgerService.Reconcile(ctx, tx, user.Id); err != nil {
			if !errors.Is(err, ledger.ErrOutOfBalance) {
				return err
			}
			drifted = true
			auditMsg = "MISMATCH"
			zap.L().Warn("Balance drift detected", zap.String("user_id", user.Id), zap.Error(err))
		}
		var err error
		history, err = ledgerService.History(ctx, tx, user.Id, limit, 0)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to load ledger: %w", err)
	}

	printUserHeader(user, auditMsg)
	for i, t := range history {
		printTransaction(t, i == len(history)-1)
	}
	return drifted, nil
}

func processUsersAndGenerateReport(ctx context.Context, st store.Store, users []models.User, limit int, logger *zap.Logger) balanceStats {
	stats := balanceStats{total: decimal.Zero}
	ledgerService := ledger.NewService()

	for _, user := range users {
		stats.totalUsers++

		drifted, err := processUser(ctx, st, ledgerService, user, limit)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if user.WalletBalance.IsPositive() {
			stats.fundedUsers++
			stats.total = stats.total.Add(user.WalletBalance)
		}
		if drifted {
			stats.outOfBalance++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	limitFlag := flag.Int("history", 5, "Number of recent ledger entries to show per user")
	flag.Parse()

	logger.Info("Starting balance report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to store", zap.String("driver", cfg.Database.Driver), zap.String("path", cfg.Database.Path))
	st, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	users, err := common.InitializeUsers(ctx, st, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, st, users, *limitFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d funded of %d users, %s held, %d out of balance",
		stats.fundedUsers, stats.totalUsers, common.FormatMoney(stats.total), stats.outOfBalance)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance report completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("funded_users", stats.fundedUsers),
		zap.Int("out_of_balance", stats.outOfBalance))
}
