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
	"regexp"

	"earnyard-ledger-go/internal/auth"
	"earnyard-ledger-go/internal/common"
	"earnyard-ledger-go/internal/config"
	"earnyard-ledger-go/internal/models"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Account display name (required)")
	emailFlag := flag.String("email", "", "Account email address (required)")
	passwordFlag := flag.String("password", "", "Initial password, at least 6 characters (required)")
	adminFlag := flag.Bool("admin", false, "Create a staff account with the admin role")
	referralFlag := flag.String("referral", "", "Referral code of the inviting account (optional)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Flags are required: --name, --email and --password")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	role := models.RoleUser
	if *adminFlag {
		role = models.RoleAdmin
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	zap.L().Info("Creating account",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag),
		zap.String("role", string(role)))

	user, err := services.Auth.CreateAccount(ctx, auth.NewAccount{
		Name:         *nameFlag,
		Email:        *emailFlag,
		Password:     *passwordFlag,
		ReferralCode: *referralFlag,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			zap.L().Fatal("An account already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:            %s\n", user.Id)
	fmt.Printf("Name:          %s\n", user.Name)
	fmt.Printf("Email:         %s\n", user.Email)
	fmt.Printf("Role:          %s\n", user.Role)
	fmt.Printf("Referral code: %s\n", user.ReferralCode)
	if user.ReferredBy != "" {
		fmt.Printf("Referred by:   %s\n", user.ReferredBy)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created", zap.String("user_id", user.Id))
}
