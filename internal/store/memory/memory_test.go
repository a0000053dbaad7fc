package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	s := New()
	ctx := context.Background()
	err := s.Atomic(ctx, func(tx store.Tx) error {
		return tx.CreateUser(ctx, &models.User{
			Id:           "user1",
			Name:         "Test User",
			Email:        "test@example.com",
			ReferralCode: "REF-AAAAAA",
			Role:         models.RoleUser,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return s, s.Close
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.SetBalance(ctx, "user1", decimal.NewFromInt(50), 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, "user1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !u.WalletBalance.IsZero() {
			t.Errorf("Expected balance 0 after rollback, got %s", u.WalletBalance)
		}
		if u.Version != 1 {
			t.Errorf("Expected version 1 after rollback, got %d", u.Version)
		}
		return nil
	})
}

func TestAtomic_CommitsOnSuccess(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(50), 1)
	})
	if err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		u, _ := tx.GetUser(ctx, "user1")
		if !u.WalletBalance.Equal(decimal.NewFromInt(50)) {
			t.Errorf("Expected balance 50, got %s", u.WalletBalance)
		}
		return nil
	})
}

func TestSetBalance_RejectsNegativeAndStaleVersion(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(-1), 1)
	})
	if !errors.Is(err, store.ErrNegativeBalance) {
		t.Errorf("Expected ErrNegativeBalance, got %v", err)
	}

	err = s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetBalance(ctx, "user1", decimal.NewFromInt(1), 7)
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification, got %v", err)
	}
}

func TestUpdateUser_NeverWritesBalance(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.SetBalance(ctx, "user1", decimal.NewFromInt(20), 1); err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, "user1")
		if err != nil {
			return err
		}
		u.WalletBalance = decimal.NewFromInt(1_000_000)
		u.IsFrozen = true
		return tx.UpdateUser(ctx, u)
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		u, _ := tx.GetUser(ctx, "user1")
		if !u.WalletBalance.Equal(decimal.NewFromInt(20)) {
			t.Errorf("Expected balance 20, got %s", u.WalletBalance)
		}
		if !u.IsFrozen {
			t.Errorf("Expected frozen flag to persist")
		}
		return nil
	})
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		return tx.CreateUser(ctx, &models.User{Id: "user2", Email: "TEST@example.com"})
	})
	if !errors.Is(err, store.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Tx) error {
		_, err := tx.GetUser(ctx, "missing")
		return err
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddEngagement_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		e := models.Engagement{TaskId: "T1", UserId: "user1", EngagedAt: time.Now()}
		created, err := tx.AddEngagement(ctx, e)
		if err != nil || !created {
			t.Fatalf("Expected first engagement to be created, got %v %v", created, err)
		}
		created, err = tx.AddEngagement(ctx, e)
		if err != nil || created {
			t.Errorf("Expected second engagement to be a no-op, got %v %v", created, err)
		}
		return nil
	})
}

func TestTransactions_NewestFirstAndSum(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		for i, amt := range []int64{10, -3, 5} {
			err := tx.InsertTransaction(ctx, &models.Transaction{
				Id:     string(rune('a' + i)),
				UserId: "user1",
				Amount: decimal.NewFromInt(amt),
			})
			if err != nil {
				t.Fatalf("InsertTransaction failed: %v", err)
			}
		}
		return nil
	})

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		history, _ := tx.ListTransactions(ctx, "user1", 2, 0)
		if len(history) != 2 || history[0].Id != "c" || history[1].Id != "b" {
			t.Errorf("Unexpected history order: %+v", history)
		}
		sum, _ := tx.SumTransactions(ctx, "user1")
		if !sum.Equal(decimal.NewFromInt(12)) {
			t.Errorf("Expected sum 12, got %s", sum)
		}
		return nil
	})
}

func TestAppendMessage_PreservesOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_ = s.Atomic(ctx, func(tx store.Tx) error {
		err := tx.CreateRequest(ctx, &models.ApprovalRequest{Id: "TOP-1", UserId: "user1", Type: models.RequestDeposit, Status: models.StatusPending})
		if err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
		_ = tx.AppendMessage(ctx, "TOP-1", models.P2PMessage{SenderId: "user1", Text: "first"})
		_ = tx.AppendMessage(ctx, "TOP-1", models.P2PMessage{SenderId: "admin", Text: "second"})
		req, _ := tx.GetRequest(ctx, "TOP-1")
		if len(req.Messages) != 2 || req.Messages[0].Text != "first" || req.Messages[1].Text != "second" {
			t.Errorf("Unexpected thread: %+v", req.Messages)
		}
		return nil
	})
}
