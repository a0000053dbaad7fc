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
	"log"
	"os"
	"strings"

	"earnyard-ledger-go/internal/advisor"
	"earnyard-ledger-go/internal/api"
	"earnyard-ledger-go/internal/auth"
	"earnyard-ledger-go/internal/database"
	"earnyard-ledger-go/internal/interest"
	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/marketplace"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"
	"earnyard-ledger-go/internal/support"
	"earnyard-ledger-go/internal/workflow"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("Loaded environment variables from .env file")
	}
}

type Services struct {
	Store       store.Store
	Ledger      *ledger.Service
	Interest    *interest.Engine
	Referral    *referral.Engine
	Settings    *settings.Service
	Auth        *auth.Service
	Workflow    *workflow.Service
	Marketplace *marketplace.Service
	Moderation  *moderation.Service
	Support     *support.Service
	Advisor     *advisor.Client
	API         *api.Service
}

// InitializeLogger installs a production zap logger as the global logger.
// LOG_LEVEL overrides the default info level.
func InitializeLogger() (*zap.Logger, func()) {
	zapCfg := zap.NewProductionConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			log.Printf("Ignoring invalid LOG_LEVEL %q: %v\n", level, err)
		} else {
			zapCfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured store and wires every domain
// service over it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	st, err := InitializeStoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServices(st, cfg), nil
}

// NewServices wires the domain services over an open store.
func NewServices(st store.Store, cfg *models.Config) *Services {
	policy := cfg.Policy

	ledgerService := ledger.NewService()
	settingsService := settings.NewService(st, policy)
	referralEngine := referral.NewEngine(ledgerService, policy)
	advisorClient := advisor.New(cfg.Advisor, policy)

	s := &Services{
		Store:       st,
		Ledger:      ledgerService,
		Interest:    interest.NewEngine(ledgerService, settingsService, policy),
		Referral:    referralEngine,
		Settings:    settingsService,
		Auth:        auth.NewService(st, referralEngine, settingsService, cfg.Auth),
		Workflow:    workflow.NewService(st, ledgerService, referralEngine, settingsService, policy),
		Marketplace: marketplace.NewService(st, ledgerService, settingsService, policy),
		Moderation:  moderation.NewService(st, ledgerService, policy),
		Support:     support.NewService(st, advisorClient),
		Advisor:     advisorClient,
	}
	s.API = api.NewService(api.Deps{
		Store:       st,
		Ledger:      s.Ledger,
		Interest:    s.Interest,
		Referral:    s.Referral,
		Auth:        s.Auth,
		Workflow:    s.Workflow,
		Marketplace: s.Marketplace,
		Moderation:  s.Moderation,
		Settings:    s.Settings,
		Support:     s.Support,
		Advisor:     s.Advisor,
	})
	return s
}

// InitializeStoreOnly opens just the store. Useful for read-only operations
// like balance reports.
func InitializeStoreOnly(ctx context.Context, cfg *models.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		zap.L().Warn("Using in-memory store; all state is lost on exit")
		return memory.New(), nil
	case "sqlite", "":
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return dbService, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
