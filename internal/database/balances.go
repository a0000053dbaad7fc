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
	"database/sql"
	"errors"
	"fmt"

	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// SetBalance updates the wallet balance with optimistic locking
func (t *sqlTx) SetBalance(ctx context.Context, userId string, balance decimal.Decimal, expectedVersion int64) error {
	if balance.IsNegative() {
		return fmt.Errorf("user %s: %w", userId, store.ErrNegativeBalance)
	}

	result, err := t.tx.ExecContext(ctx, queryUpdateBalance, balance.String(), userId, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := t.tx.QueryRowContext(ctx, queryUserExists, userId).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("user", userId)
		}
		return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}
