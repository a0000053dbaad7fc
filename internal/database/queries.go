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

const (
	// User queries
	userColumns = `
		id, name, email, password_hash, phone_number, country, role, wallet_balance,
		is_banned, is_frozen, is_creator, referral_code, referred_by, referral_earnings,
		referral_bonus_paid, is_premium, premium_expiry, notifications,
		last_interest_harvest, created_at, version`

	queryInsertUser = `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = ? COLLATE NOCASE`

	queryGetUserByReferralCode = `
		SELECT ` + userColumns + `
		FROM users
		WHERE referral_code = ?`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY rowid`

	queryCountReferrals = `
		SELECT COUNT(*) FROM users WHERE referred_by = ?`

	queryUpdateUser = `
		UPDATE users SET
			name = ?, email = ?, password_hash = ?, phone_number = ?, country = ?, role = ?,
			is_banned = ?, is_frozen = ?, is_creator = ?, referral_code = ?, referred_by = ?,
			referral_earnings = ?, referral_bonus_paid = ?, is_premium = ?, premium_expiry = ?,
			notifications = ?, last_interest_harvest = ?, version = version + 1
		WHERE id = ?
		RETURNING version, wallet_balance`

	// Balance queries
	queryUpdateBalance = `
		UPDATE users
		SET wallet_balance = ?, version = version + 1
		WHERE id = ? AND version = ?`

	queryUserExists = `
		SELECT 1 FROM users WHERE id = ?`

	// Approval request queries
	requestColumns = `
		id, user_id, user_name, type, amount, status, external_reference, method, address,
		account_name, fee_amount, local_amount, plan_tier, created_at, resolved_at`

	queryInsertRequest = `
		INSERT INTO approval_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetRequest = `
		SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE id = ?`

	queryListRequests = `
		SELECT ` + requestColumns + `
		FROM approval_requests`

	queryUpdateRequestStatus = `
		UPDATE approval_requests SET status = ?, resolved_at = ? WHERE id = ?`

	queryInsertMessage = `
		INSERT INTO request_messages (request_id, sender_id, sender_name, text, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetMessages = `
		SELECT sender_id, sender_name, text, created_at
		FROM request_messages
		WHERE request_id = ?
		ORDER BY id`

	// Marketplace queries
	offerColumns = `
		id, title, description, reward, link, status, created_by, max_participations,
		current_participations, escrow_total, created_at`

	queryInsertOffer = `
		INSERT INTO task_offers (` + offerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOffer = `
		SELECT ` + offerColumns + `
		FROM task_offers
		WHERE id = ?`

	queryListOffers = `
		SELECT ` + offerColumns + `
		FROM task_offers`

	queryUpdateOffer = `
		UPDATE task_offers SET
			title = ?, description = ?, reward = ?, link = ?, status = ?,
			max_participations = ?, current_participations = ?, escrow_total = ?
		WHERE id = ?`

	queryInsertEngagement = `
		INSERT OR IGNORE INTO task_engagements (task_id, user_id, engaged_at)
		VALUES (?, ?, ?)`

	queryHasEngagement = `
		SELECT 1 FROM task_engagements WHERE task_id = ? AND user_id = ?`

	submissionColumns = `
		id, task_id, user_id, proof, status, submitted_at, reviewed_at`

	queryInsertSubmission = `
		INSERT INTO task_submissions (` + submissionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetSubmission = `
		SELECT ` + submissionColumns + `
		FROM task_submissions
		WHERE id = ?`

	queryListSubmissions = `
		SELECT ` + submissionColumns + `
		FROM task_submissions`

	queryUpdateSubmission = `
		UPDATE task_submissions SET proof = ?, status = ?, reviewed_at = ? WHERE id = ?`

	// Support queries
	ticketColumns = `
		id, user_id, user_name, subject, content, status, response, created_at`

	queryInsertTicket = `
		INSERT INTO support_tickets (` + ticketColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTicket = `
		SELECT ` + ticketColumns + `
		FROM support_tickets
		WHERE id = ?`

	queryListTickets = `
		SELECT ` + ticketColumns + `
		FROM support_tickets`

	queryUpdateTicket = `
		UPDATE support_tickets SET subject = ?, content = ?, status = ?, response = ? WHERE id = ?`

	// Settings queries
	queryGetSettings = `
		SELECT payload FROM platform_settings WHERE id = 1`

	queryUpsertSettings = `
		INSERT INTO platform_settings (id, payload) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, transaction_type, amount, balance_before, balance_after,
			origin, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       origin, reference, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount FROM transactions WHERE user_id = ?`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`
)
