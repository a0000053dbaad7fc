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
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"earnyard-ledger-go/internal/common"
	"earnyard-ledger-go/internal/config"
	"earnyard-ledger-go/internal/httpapi"
	"earnyard-ledger-go/internal/jobs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// The logger only depends on LOG_LEVEL, so it is live before config errors.
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting EarnYard ledger server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db_driver", cfg.Database.Driver))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := services.API.HealthCheck(ctx); err != nil {
		zap.L().Fatal("Store not ready", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(services.API, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("Shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Jobs.Enabled {
		scheduler, err := jobs.NewScheduler(services.Store, services.Ledger, cfg.Jobs)
		if err != nil {
			zap.L().Fatal("Failed to schedule jobs", zap.Error(err))
		}
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	} else {
		zap.L().Info("Maintenance jobs disabled")
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Server stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}
