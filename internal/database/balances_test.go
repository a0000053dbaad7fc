package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestSetBalance_OptimisticLocking(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(10), 1)
	})
	if err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}

	err = service.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(20), 1)
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification for stale version, got %v", err)
	}

	err = service.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "missing", decimal.NewFromInt(20), 1)
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSetBalance_RejectsNegative(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(-1), 1)
	})
	if !errors.Is(err, store.ErrNegativeBalance) {
		t.Errorf("Expected ErrNegativeBalance, got %v", err)
	}
}

func TestUpdateUser_PreservesBalanceAndRoundTrips(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	expiry := time.Now().Add(30 * 24 * time.Hour)

	err := service.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.SetBalance(ctx, "user1", decimal.RequireFromString("12.34"), 1); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, "user1")
		if err != nil {
			return err
		}
		user.WalletBalance = decimal.NewFromInt(999)
		user.IsPremium = true
		user.PremiumExpiry = expiry
		user.Notify("Premium activated")
		return tx.UpdateUser(ctx, user)
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	_ = service.Atomic(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, "user1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !user.WalletBalance.Equal(decimal.RequireFromString("12.34")) {
			t.Errorf("Expected balance 12.34, got %s", user.WalletBalance)
		}
		if !user.IsPremium || !user.PremiumExpiry.Equal(expiry) {
			t.Errorf("Expected premium until %v, got %v %v", expiry, user.IsPremium, user.PremiumExpiry)
		}
		if len(user.Notifications) != 1 || user.Notifications[0] != "Premium activated" {
			t.Errorf("Unexpected notifications: %v", user.Notifications)
		}
		if user.Version != 3 {
			t.Errorf("Expected version 3, got %d", user.Version)
		}
		return nil
	})
}

func TestRequests_ThreadAndFilter(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	err := service.Atomic(ctx, func(tx store.Tx) error {
		req := &models.ApprovalRequest{
			Id: "WDR-1", UserId: "user1", Type: models.RequestWithdrawal, Amount: decimal.NewFromInt(10),
			Status: models.StatusPending, Method: models.MethodMomo, FeeAmount: decimal.RequireFromString("0.5"),
			CreatedAt: now,
			Messages:  []models.P2PMessage{{SenderId: "system", SenderName: "System", Text: "Withdrawal initiated.", Timestamp: now}},
		}
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}
		return tx.AppendMessage(ctx, "WDR-1", models.P2PMessage{SenderId: "user1", SenderName: "Test User", Text: "any update?", Timestamp: now})
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	_ = service.Atomic(ctx, func(tx store.Tx) error {
		pending, err := tx.ListRequests(ctx, store.RequestFilter{Status: models.StatusPending})
		if err != nil {
			t.Fatalf("ListRequests failed: %v", err)
		}
		if len(pending) != 1 || len(pending[0].Messages) != 2 {
			t.Fatalf("Expected one request with two messages, got %+v", pending)
		}
		if pending[0].Messages[0].Text != "Withdrawal initiated." {
			t.Errorf("Expected system message first, got %q", pending[0].Messages[0].Text)
		}
		if !pending[0].FeeAmount.Equal(decimal.RequireFromString("0.5")) {
			t.Errorf("Expected fee 0.5, got %s", pending[0].FeeAmount)
		}

		deposits, _ := tx.ListRequests(ctx, store.RequestFilter{Type: models.RequestDeposit})
		if len(deposits) != 0 {
			t.Errorf("Expected no deposits, got %d", len(deposits))
		}
		return nil
	})

	err = service.Atomic(ctx, func(tx store.Tx) error {
		return tx.AppendMessage(ctx, "missing", models.P2PMessage{Text: "x", Timestamp: now})
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown request, got %v", err)
	}
}

func TestEngagement_InsertOrIgnore(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	_ = service.Atomic(ctx, func(tx store.Tx) error {
		e := models.Engagement{TaskId: "T-1", UserId: "user1", EngagedAt: time.Now()}
		created, err := tx.AddEngagement(ctx, e)
		if err != nil || !created {
			t.Fatalf("Expected engagement to be created, got %v %v", created, err)
		}
		created, err = tx.AddEngagement(ctx, e)
		if err != nil || created {
			t.Errorf("Expected repeated engagement to be ignored, got %v %v", created, err)
		}
		ok, _ := tx.HasEngagement(ctx, "T-1", "user1")
		if !ok {
			t.Errorf("Expected engagement to exist")
		}
		return nil
	})
}

func TestSettings_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	_ = service.Atomic(ctx, func(tx store.Tx) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil || settings != nil {
			t.Fatalf("Expected no settings yet, got %+v %v", settings, err)
		}
		return tx.SaveSettings(ctx, &models.PlatformSettings{
			DailyInterestRate: decimal.RequireFromString("0.03"),
			MaintenanceMode:   true,
			Notifications:     []string{"hello"},
		})
	})

	_ = service.Atomic(ctx, func(tx store.Tx) error {
		settings, err := tx.GetSettings(ctx)
		if err != nil {
			t.Fatalf("GetSettings failed: %v", err)
		}
		if !settings.DailyInterestRate.Equal(decimal.RequireFromString("0.03")) || !settings.MaintenanceMode {
			t.Errorf("Unexpected settings: %+v", settings)
		}
		return nil
	})
}
