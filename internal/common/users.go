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

package common

import (
	"context"
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"go.uber.org/zap"
)

// InitializeUsers retrieves users based on an optional email filter.
// If emailFilter is provided, returns a single user with that email.
// If emailFilter is empty, returns all non-admin users.
func InitializeUsers(ctx context.Context, st store.Store, emailFilter string, logger *zap.Logger) ([]models.User, error) {
	var users []models.User

	err := st.Atomic(ctx, func(tx store.Tx) error {
		if emailFilter != "" {
			logger.Info("Looking up user by email", zap.String("email", emailFilter))
			user, err := tx.GetUserByEmail(ctx, emailFilter)
			if err != nil {
				return fmt.Errorf("user not found: %w", err)
			}
			users = append(users, *user)
			return nil
		}

		all, err := tx.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range all {
			if !u.IsAdmin() {
				users = append(users, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
