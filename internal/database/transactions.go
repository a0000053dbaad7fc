package database

import (
	"context"
	"database/sql"
	"fmt"

	"earnyard-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InsertTransaction records an audit row and its journal entries
func (t *sqlTx) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	_, err := t.tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.UserId, transaction.Type,
		transaction.Amount.String(), transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		transaction.Origin, transaction.Reference, transaction.CreatedAt)
	if err != nil {
		return mapWriteError(err, "transaction "+transaction.Id)
	}

	if err := t.addJournalEntries(ctx, transaction); err != nil {
		return fmt.Errorf("failed to add journal entries: %w", err)
	}
	return nil
}

// ListTransactions returns paginated history for an account, newest first
func (t *sqlTx) ListTransactions(ctx context.Context, accountId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("account_id", accountId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	if limit <= 0 {
		limit = -1
	}

	rows, err := t.tx.QueryContext(ctx, queryGetTransactionHistory, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(&tx.Id, &tx.UserId, &tx.Type,
			&tx.Amount, &tx.BalanceBefore, &tx.BalanceAfter,
			&tx.Origin, &tx.Reference, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// SumTransactions adds the account's audit amounts in exact decimal arithmetic
func (t *sqlTx) SumTransactions(ctx context.Context, accountId string) (decimal.Decimal, error) {
	rows, err := t.tx.QueryContext(ctx, queryGetTransactionAmounts, accountId)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		sum = sum.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amounts: %w", err)
	}
	return sum, nil
}
