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

package database

import (
	"context"
	"fmt"

	"earnyard-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Service) initLedgerSchema(ctx context.Context) error {
	schema := `
	-- Transactions Table (Audit Trail)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		origin TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(transaction_type);

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_journal_transaction_id ON journal_entries(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// contraAccounts names the platform account on the other side of each
// wallet movement.
var contraAccounts = map[models.TransactionType]string{
	models.TxDeposit:              "external_deposits",
	models.TxWithdrawal:           "pending_withdrawals",
	models.TxWithdrawalRefund:     "pending_withdrawals",
	models.TxWithdrawalSettlement: "pending_withdrawals",
	models.TxInterest:             "interest_expense",
	models.TxReferralBonus:        "referral_expense",
	models.TxPremiumBonus:         "promotion_expense",
	models.TxEscrowLock:           "task_escrow",
	models.TxTaskReward:           "task_escrow",
	models.TxAdminCredit:          "admin_adjustments",
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  decimal.Decimal
	creditAmount decimal.Decimal
}

// addJournalEntries creates double-entry bookkeeping entries. A wallet
// increase debits the holder's account and credits the contra account; a
// decrease does the opposite.
func (t *sqlTx) addJournalEntries(ctx context.Context, transaction *models.Transaction) error {
	contra, ok := contraAccounts[transaction.Type]
	if !ok {
		contra = "unclassified"
	}

	abs := transaction.Amount.Abs()
	holder := journalEntry{accountType: "wallet", accountId: transaction.UserId}
	other := journalEntry{accountType: "platform", accountId: contra}
	if transaction.Amount.IsPositive() {
		holder.debitAmount, other.creditAmount = abs, abs
	} else {
		holder.creditAmount, other.debitAmount = abs, abs
	}

	for _, entry := range []journalEntry{holder, other} {
		_, err := t.tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transaction.Id, entry.accountType, entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String())
		if err != nil {
			return fmt.Errorf("failed to add journal entry: %w", err)
		}
	}
	return nil
}
