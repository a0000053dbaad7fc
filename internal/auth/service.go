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

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type Service struct {
	store    store.Store
	referral *referral.Engine
	settings *settings.Service
	cfg      models.AuthConfig
	now      func() time.Time
}

func NewService(st store.Store, referralEngine *referral.Engine, settingsService *settings.Service, cfg models.AuthConfig) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: st, referral: referralEngine, settings: settingsService, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NewAccount describes a registration.
type NewAccount struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
	Role         models.Role
}

// Register creates an account with a fresh referral code, attributes it to
// the referrer when the code resolves, and opens a session.
func (s *Service) Register(ctx context.Context, in NewAccount) (*models.Session, error) {
	user, err := s.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// CreateAccount creates an account without opening a session.
func (s *Service) CreateAccount(ctx context.Context, in NewAccount) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", models.ErrInvalidRequest)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidRequest, minPasswordLength)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Id:                  "u-" + uuid.New().String(),
		Name:                name,
		Email:               email,
		PasswordHash:        string(hash),
		Role:                role,
		LastInterestHarvest: now,
		CreatedAt:           now,
	}

	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetUserByEmail(ctx, email); err == nil {
			return models.ErrEmailTaken
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		code, err := s.referral.GenerateCode(ctx, tx)
		if err != nil {
			return err
		}
		user.ReferralCode = code
		if err := s.referral.Attribute(ctx, tx, user, strings.TrimSpace(in.ReferralCode)); err != nil {
			return err
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return fmt.Errorf("%w: %v", models.ErrEmailTaken, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account registered",
		zap.String("user_id", user.Id),
		zap.String("role", string(user.Role)),
		zap.String("referred_by", user.ReferredBy))
	return user, nil
}

// Login verifies credentials. Banned accounts cannot open a session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var user *models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, normalizeEmail(email))
		return err
	})
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		zap.L().Warn("Login failed", zap.String("user_id", user.Id))
		return nil, models.ErrInvalidCredentials
	}
	if user.IsBanned {
		return nil, fmt.Errorf("node struck: %w", models.ErrAccountBanned)
	}
	return s.session(user)
}

// Authenticate resolves a bearer token to the current stored account. A ban
// observed here ends the session.
func (s *Service) Authenticate(ctx context.Context, tx store.Tx, token string) (*models.User, error) {
	claims, err := ParseToken(s.cfg, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	user, err := tx.GetUser(ctx, claims.UserId)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, fmt.Errorf("node struck from grid: %w", models.ErrAccountBanned)
	}
	return user, nil
}

// ProfileUpdate carries optional profile edits; empty fields are unchanged.
type ProfileUpdate struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Country     string
}

func (s *Service) UpdateProfile(ctx context.Context, userId string, in ProfileUpdate) (*models.User, error) {
	var hash string
	if in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidRequest, minPasswordLength)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = string(b)
	}

	return s.mutateActive(ctx, userId, func(tx store.Tx, user *models.User) error {
		if in.Email != "" {
			email := normalizeEmail(in.Email)
			if !strings.Contains(email, "@") {
				return fmt.Errorf("%w: invalid email", models.ErrInvalidRequest)
			}
			if existing, err := tx.GetUserByEmail(ctx, email); err == nil && existing.Id != user.Id {
				return models.ErrEmailTaken
			}
			user.Email = email
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			user.Name = name
		}
		if in.PhoneNumber != "" {
			user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
		}
		if in.Country != "" {
			user.Country = strings.TrimSpace(in.Country)
		}
		if hash != "" {
			user.PasswordHash = hash
		}
		return nil
	})
}

// ActivateCreator grants the capability to fund offers.
func (s *Service) ActivateCreator(ctx context.Context, userId string) (*models.User, error) {
	return s.mutateActive(ctx, userId, func(_ store.Tx, user *models.User) error {
		user.IsCreator = true
		zap.L().Info("Creator access activated", zap.String("user_id", user.Id))
		return nil
	})
}

func (s *Service) mutateActive(ctx context.Context, userId string, fn func(tx store.Tx, user *models.User) error) (*models.User, error) {
	var out *models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, userId)
		if err != nil {
			return err
		}
		cfg, err := s.settings.Current(ctx, tx)
		if err != nil {
			return err
		}
		if err := moderation.RequireActive(user, cfg); err != nil {
			return err
		}
		if err := fn(tx, user); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		out = user
		return nil
	})
	return out, err
}

func (s *Service) session(user *models.User) (*models.Session, error) {
	token, err := GenerateToken(s.cfg, user, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &models.Session{Token: token, User: *user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
