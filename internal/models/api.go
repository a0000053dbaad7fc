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

package models

import (
	"github.com/shopspring/decimal"
)

// Result is the outcome of a boundary operation. Failures carry a Code from
// ErrorCode and never escape as Go errors.
type Result struct {
	Success    bool            `json:"success"`
	Code       string          `json:"code"`
	Error      string          `json:"error,omitempty"`
	UserId     string          `json:"user_id,omitempty"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Data       any             `json:"data,omitempty"`
}

// Ok builds a successful result.
func Ok(userId string, balance decimal.Decimal, data any) *Result {
	return &Result{Success: true, Code: CodeOK, UserId: userId, NewBalance: balance, Data: data}
}

// Fail builds a tagged failure from err.
func Fail(err error) *Result {
	return &Result{Success: false, Code: ErrorCode(err), Error: err.Error()}
}

// Session is returned by login and register
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Wallet is the user's balance view with recent audit rows
type Wallet struct {
	Balance          decimal.Decimal `json:"balance"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	ReferralCount    int             `json:"referral_count"`
	IsPremium        bool            `json:"is_premium"`
	Transactions     []Transaction   `json:"transactions"`
}

// ReferralStats summarises a user's referral activity
type ReferralStats struct {
	Code     string          `json:"code"`
	Referred int             `json:"referred"`
	Earnings decimal.Decimal `json:"earnings"`
}

// AdminStats is the operator dashboard summary
type AdminStats struct {
	UserCount    int             `json:"user_count"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	PendingCount int             `json:"pending_count"`
	ActiveTasks  int             `json:"active_tasks"`
	OpenTickets  int             `json:"open_tickets"`
}

// LeaderboardEntry is one ranked wallet
type LeaderboardEntry struct {
	Rank      int             `json:"rank"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	IsPremium bool            `json:"is_premium"`
}
