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
	"encoding/json"
	"errors"
	"fmt"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"go.uber.org/zap"
)

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var notifications string
	err := row.Scan(&user.Id, &user.Name, &user.Email, &user.PasswordHash, &user.PhoneNumber,
		&user.Country, &user.Role, &user.WalletBalance, &user.IsBanned, &user.IsFrozen,
		&user.IsCreator, &user.ReferralCode, &user.ReferredBy, &user.ReferralEarnings,
		&user.ReferralBonusPaid, &user.IsPremium, &user.PremiumExpiry, &notifications,
		&user.LastInterestHarvest, &user.CreatedAt, &user.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(notifications), &user.Notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications for user %s: %w", user.Id, err)
	}
	return &user, nil
}

func (t *sqlTx) queryUser(ctx context.Context, query, kind, key string) (*models.User, error) {
	user, err := scanUser(t.tx.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (t *sqlTx) GetUser(ctx context.Context, userId string) (*models.User, error) {
	return t.queryUser(ctx, queryGetUserById, "user", userId)
}

func (t *sqlTx) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return t.queryUser(ctx, queryGetUserByEmail, "user with email", email)
}

func (t *sqlTx) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return t.queryUser(ctx, queryGetUserByReferralCode, "user with referral code", code)
}

func (t *sqlTx) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := t.tx.QueryContext(ctx, queryGetUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

func (t *sqlTx) CountReferrals(ctx context.Context, referrerId string) (int, error) {
	var count int
	if err := t.tx.QueryRowContext(ctx, queryCountReferrals, referrerId).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

func (t *sqlTx) CreateUser(ctx context.Context, user *models.User) error {
	if user.WalletBalance.IsNegative() {
		return store.ErrNegativeBalance
	}
	notifications, err := encodeStrings(user.Notifications)
	if err != nil {
		return err
	}

	user.Version = 1
	_, err = t.tx.ExecContext(ctx, queryInsertUser,
		user.Id, user.Name, user.Email, user.PasswordHash, user.PhoneNumber, user.Country,
		user.Role, user.WalletBalance.String(), user.IsBanned, user.IsFrozen, user.IsCreator,
		user.ReferralCode, user.ReferredBy, user.ReferralEarnings.String(), user.ReferralBonusPaid,
		user.IsPremium, user.PremiumExpiry, notifications, user.LastInterestHarvest,
		user.CreatedAt, user.Version)
	if err != nil {
		return mapWriteError(err, "user "+user.Email)
	}

	zap.L().Info("User created",
		zap.String("id", user.Id),
		zap.String("name", user.Name),
		zap.String("email", user.Email))

	return nil
}

func (t *sqlTx) UpdateUser(ctx context.Context, user *models.User) error {
	notifications, err := encodeStrings(user.Notifications)
	if err != nil {
		return err
	}

	err = t.tx.QueryRowContext(ctx, queryUpdateUser,
		user.Name, user.Email, user.PasswordHash, user.PhoneNumber, user.Country, user.Role,
		user.IsBanned, user.IsFrozen, user.IsCreator, user.ReferralCode, user.ReferredBy,
		user.ReferralEarnings.String(), user.ReferralBonusPaid, user.IsPremium, user.PremiumExpiry,
		notifications, user.LastInterestHarvest, user.Id).
		Scan(&user.Version, &user.WalletBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("user", user.Id)
	}
	if err != nil {
		return mapWriteError(err, "user "+user.Id)
	}
	return nil
}
