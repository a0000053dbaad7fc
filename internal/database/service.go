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
	"strings"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)
var _ store.Tx = (*sqlTx)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	// _txlock=immediate takes the write lock at BEGIN so atomic units never interleave.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_txlock=immediate&_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Atomic runs fn inside one BEGIN IMMEDIATE transaction.
func (s *Service) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Users own the wallet balance; version guards balance writes
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL COLLATE NOCASE UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		wallet_balance TEXT NOT NULL DEFAULT '0',
		is_banned BOOLEAN NOT NULL DEFAULT 0,
		is_frozen BOOLEAN NOT NULL DEFAULT 0,
		is_creator BOOLEAN NOT NULL DEFAULT 0,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT NOT NULL DEFAULT '',
		referral_earnings TEXT NOT NULL DEFAULT '0',
		referral_bonus_paid BOOLEAN NOT NULL DEFAULT 0,
		is_premium BOOLEAN NOT NULL DEFAULT 0,
		premium_expiry TIMESTAMP NOT NULL,
		notifications TEXT NOT NULL DEFAULT '[]',
		last_interest_harvest TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);

	CREATE TABLE IF NOT EXISTS approval_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		external_reference TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		fee_amount TEXT NOT NULL DEFAULT '0',
		local_amount TEXT NOT NULL DEFAULT '0',
		plan_tier TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user_id ON approval_requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON approval_requests(status);

	-- Append-only request threads
	CREATE TABLE IF NOT EXISTS request_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL REFERENCES approval_requests(id) ON DELETE CASCADE,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_request_id ON request_messages(request_id);

	CREATE TABLE IF NOT EXISTS task_offers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		reward TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		max_participations INTEGER NOT NULL,
		current_participations INTEGER NOT NULL DEFAULT 0
			CHECK (current_participations <= max_participations),
		escrow_total TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_offers_created_by ON task_offers(created_by);

	CREATE TABLE IF NOT EXISTS task_engagements (
		task_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		engaged_at TIMESTAMP NOT NULL,
		PRIMARY KEY (task_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS task_submissions (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		proof TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_at TIMESTAMP NOT NULL,
		reviewed_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_task_user ON task_submissions(task_id, user_id);

	CREATE TABLE IF NOT EXISTS support_tickets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL,
		response TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS platform_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return s.initLedgerSchema(ctx)
}

// sqlTx implements store.Tx over a single database transaction.
type sqlTx struct {
	tx *sql.Tx
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapWriteError turns unique constraint violations into store.ErrDuplicateKey.
func mapWriteError(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, what)
	}
	return fmt.Errorf("failed to write %s: %w", what, err)
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

// where appends the non-empty conditions to query.
func where(query string, conds []string) string {
	if len(conds) == 0 {
		return query
	}
	return query + " WHERE " + strings.Join(conds, " AND ")
}
