package common

import (
	"context"
	"errors"
	"testing"

	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"go.uber.org/zap"
)

func seedUsers(t *testing.T) store.Store {
	st := memory.New()
	t.Cleanup(st.Close)
	ctx := context.Background()

	users := []models.User{
		{Id: "u1", Name: "Ama", Email: "ama@x.io", ReferralCode: "REF-AAAAAA", Role: models.RoleUser},
		{Id: "u2", Name: "Kofi", Email: "kofi@x.io", ReferralCode: "REF-BBBBBB", Role: models.RoleUser},
		{Id: "a1", Name: "Ops", Email: "ops@x.io", ReferralCode: "REF-CCCCCC", Role: models.RoleAdmin},
	}
	err := st.Atomic(ctx, func(tx store.Tx) error {
		for i := range users {
			if err := tx.CreateUser(ctx, &users[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to seed users: %v", err)
	}
	return st
}

func TestInitializeUsers_SkipsAdmins(t *testing.T) {
	st := seedUsers(t)

	users, err := InitializeUsers(context.Background(), st, "", zap.NewNop())
	if err != nil {
		t.Fatalf("InitializeUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 non-admin users, got %d", len(users))
	}
	for _, u := range users {
		if u.IsAdmin() {
			t.Errorf("Admin %s should not be listed", u.Email)
		}
	}
}

func TestInitializeUsers_EmailFilter(t *testing.T) {
	st := seedUsers(t)
	ctx := context.Background()

	users, err := InitializeUsers(ctx, st, "ops@x.io", zap.NewNop())
	if err != nil {
		t.Fatalf("InitializeUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Id != "a1" {
		t.Fatalf("Expected only a1, got %+v", users)
	}

	_, err = InitializeUsers(ctx, st, "ghost@x.io", zap.NewNop())
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
