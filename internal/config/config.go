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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"earnyard-ledger-go/internal/models"
)

func Load() (*models.Config, error) {
	durations := map[string]time.Duration{
		"DB_CONN_MAX_LIFETIME":    5 * time.Minute,
		"DB_CONN_MAX_IDLE_TIME":   30 * time.Second,
		"DB_PING_TIMEOUT":         5 * time.Second,
		"DB_BUSY_TIMEOUT":         5 * time.Second,
		"SERVER_SHUTDOWN_TIMEOUT": 15 * time.Second,
		"JWT_TTL":                 24 * time.Hour,
		"ADVISOR_TIMEOUT":         15 * time.Second,
	}
	for key, def := range durations {
		d, err := getEnvDuration(key, def)
		if err != nil {
			return nil, err
		}
		durations[key] = d
	}

	loginRate, err := getEnvFloat("LOGIN_RATE_LIMIT", 0.2)
	if err != nil {
		return nil, err
	}

	secret := getEnvString("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	policy, err := LoadPolicy(getEnvString("POLICY_FILE", "policy.yaml"))
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Driver:          getEnvString("DB_DRIVER", "sqlite"),
			Path:            getEnvString("DATABASE_PATH", "earnyard.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			ConnMaxIdleTime: durations["DB_CONN_MAX_IDLE_TIME"],
			PingTimeout:     durations["DB_PING_TIMEOUT"],
			BusyTimeout:     durations["DB_BUSY_TIMEOUT"],
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			LoginRateLimit:  loginRate,
			LoginBurst:      getEnvInt("LOGIN_BURST", 5),
		},
		Auth: models.AuthConfig{
			JWTSecret:  secret,
			Issuer:     getEnvString("JWT_ISSUER", "earnyard"),
			TokenTTL:   durations["JWT_TTL"],
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		Advisor: models.AdvisorConfig{
			Enabled:      getEnvBool("ADVISOR_ENABLED", false),
			Endpoint:     getEnvString("ADVISOR_ENDPOINT", ""),
			APIKey:       getEnvString("ADVISOR_API_KEY", ""),
			Model:        getEnvString("ADVISOR_MODEL", ""),
			ResponsePath: getEnvString("ADVISOR_RESPONSE_PATH", "text"),
			Timeout:      durations["ADVISOR_TIMEOUT"],
		},
		Jobs: models.JobsConfig{
			Enabled:              getEnvBool("JOBS_ENABLED", true),
			PremiumSweepSchedule: getEnvString("JOB_PREMIUM_SWEEP_SCHEDULE", "@every 1h"),
			ReconcileSchedule:    getEnvString("JOB_RECONCILE_SCHEDULE", "@daily"),
		},
		Policy: policy,
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
