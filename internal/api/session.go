package api

import (
	"context"

	"earnyard-ledger-go/internal/auth"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) Register(ctx context.Context, in auth.NewAccount) *models.Result {
	in.Role = models.RoleUser
	sess, err := s.auth.Register(ctx, in)
	if err != nil {
		return s.finish(ctx, "register", "", nil, err)
	}
	return s.finish(ctx, "register", sess.User.Id, sess, nil)
}

// Login opens a session and settles any interest owed since the last visit.
func (s *Service) Login(ctx context.Context, email, password string) *models.Result {
	sess, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return s.finish(ctx, "login", "", nil, err)
	}
	user, err := s.refresh(ctx, func(tx store.Tx) (*models.User, error) {
		return tx.GetUser(ctx, sess.User.Id)
	})
	if err != nil {
		return s.finish(ctx, "login", sess.User.Id, nil, err)
	}
	sess.User = *user
	zap.L().Info("Session opened", zap.String("user_id", user.Id))
	return s.finish(ctx, "login", user.Id, sess, nil)
}

// Authenticate resolves a bearer token to the stored account, harvesting
// interest in the same unit. A banned account fails with ErrAccountBanned.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return s.refresh(ctx, func(tx store.Tx) (*models.User, error) {
		return s.auth.Authenticate(ctx, tx, token)
	})
}

// CheckSession re-validates a session. Clients must log out on
// ACCOUNT_BANNED.
func (s *Service) CheckSession(ctx context.Context, token string) *models.Result {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return s.finish(ctx, "check_session", "", nil, err)
	}
	return s.finish(ctx, "check_session", user.Id, user, nil)
}

func (s *Service) refresh(ctx context.Context, load func(tx store.Tx) (*models.User, error)) (*models.User, error) {
	var user *models.User
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		user, err = load(tx)
		if err != nil {
			return err
		}
		credited, err := s.interest.Harvest(ctx, tx, user.Id)
		if err != nil {
			return err
		}
		if credited.IsPositive() {
			user, err = tx.GetUser(ctx, user.Id)
		}
		return err
	})
	return user, err
}

func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, in auth.ProfileUpdate) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "update_profile", "", nil, err)
	}
	user, err := s.auth.UpdateProfile(ctx, actor.Id, in)
	return s.finish(ctx, "update_profile", actor.Id, user, err)
}

func (s *Service) ActivateCreator(ctx context.Context, actor *models.User) *models.Result {
	if err := requireActor(actor); err != nil {
		return s.finish(ctx, "activate_creator", "", nil, err)
	}
	user, err := s.auth.ActivateCreator(ctx, actor.Id)
	return s.finish(ctx, "activate_creator", actor.Id, user, err)
}
