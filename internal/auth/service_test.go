package auth

import (
	"context"
	"testing"
	"time"

	"earnyard-ledger-go/internal/ledger"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/moderation"
	"earnyard-ledger-go/internal/referral"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/store/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() models.AuthConfig {
	return models.AuthConfig{JWTSecret: "test-secret", Issuer: "earnyard-test", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}
}

func setup(t *testing.T) (*Service, store.Store) {
	st := memory.New()
	t.Cleanup(st.Close)
	policy := models.DefaultPolicy()
	ledgerService := ledger.NewService()
	svc := NewService(st, referral.NewEngine(ledgerService, policy), settings.NewService(st, policy), testConfig())
	return svc, st
}

func authenticate(t *testing.T, svc *Service, st store.Store, token string) (*models.User, error) {
	var out *models.User
	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		var err error
		out, err = svc.Authenticate(context.Background(), tx, token)
		return err
	})
	return out, err
}

func TestRegisterAndLogin(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, NewAccount{Email: " Ama@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ama@example.com", sess.User.Email)
	assert.Equal(t, "ama", sess.User.Name)
	assert.Equal(t, models.RoleUser, sess.User.Role)
	assert.Regexp(t, `^REF-[A-Z0-9]{6}$`, sess.User.ReferralCode)
	assert.NotEqual(t, "secret1", sess.User.PasswordHash)

	user, err := authenticate(t, svc, st, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.Id, user.Id)

	_, err = svc.Register(ctx, NewAccount{Email: "ama@example.com", Password: "another"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	_, err = svc.Login(ctx, "ama@example.com", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	sess, err = svc.Login(ctx, "AMA@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, NewAccount{Email: "no-at-sign", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	_, err = svc.Register(ctx, NewAccount{Email: "a@b.io", Password: "123"})
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestRegister_ReferralAttribution(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, NewAccount{Name: "Kofi", Email: "kofi@x.io", Password: "secret1"})
	require.NoError(t, err)

	referred, err := svc.Register(ctx, NewAccount{Name: "Esi", Email: "esi@x.io", Password: "secret1", ReferralCode: referrer.User.ReferralCode})
	require.NoError(t, err)
	assert.Equal(t, referrer.User.Id, referred.User.ReferredBy)
	assert.True(t, referred.User.WalletBalance.IsZero(), "attribution never pays")

	unknown, err := svc.Register(ctx, NewAccount{Email: "yaw@x.io", Password: "secret1", ReferralCode: "REF-NOPE00"})
	require.NoError(t, err)
	assert.Empty(t, unknown.User.ReferredBy)
}

func TestLogin_Banned(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, NewAccount{Email: "b@x.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = moderation.NewService(st, ledger.NewService(), models.DefaultPolicy()).ToggleBan(ctx, sess.User.Id)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "b@x.io", "secret1")
	assert.ErrorIs(t, err, models.ErrAccountBanned)

	_, err = authenticate(t, svc, st, sess.Token)
	assert.ErrorIs(t, err, models.ErrAccountBanned, "an existing session ends once the ban is observed")
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, NewAccount{Email: "t@x.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = authenticate(t, svc, st, "garbage")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	other := testConfig()
	other.JWTSecret = "other-secret"
	forged, err := GenerateToken(other, &sess.User, time.Now())
	require.NoError(t, err)
	_, err = authenticate(t, svc, st, forged)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	expired, err := GenerateToken(testConfig(), &sess.User, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = authenticate(t, svc, st, expired)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserId: sess.User.Id})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = authenticate(t, svc, st, unsigned)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUpdateProfileAndCreator(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, NewAccount{Email: "a@x.io", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, NewAccount{Email: "b@x.io", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, a.User.Id, ProfileUpdate{Name: "Abena", Country: "GH", Password: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, "Abena", updated.Name)
	assert.Equal(t, "GH", updated.Country)
	assert.Equal(t, "a@x.io", updated.Email)

	_, err = svc.Login(ctx, "a@x.io", "newpass1")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, a.User.Id, ProfileUpdate{Email: "b@x.io"})
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	creator, err := svc.ActivateCreator(ctx, a.User.Id)
	require.NoError(t, err)
	assert.True(t, creator.IsCreator)

	_, err = moderation.NewService(st, ledger.NewService(), models.DefaultPolicy()).ToggleFreeze(ctx, a.User.Id)
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, a.User.Id, ProfileUpdate{Name: "Frozen"})
	assert.ErrorIs(t, err, models.ErrAccountFrozen)
	_, err = svc.ActivateCreator(ctx, a.User.Id)
	assert.ErrorIs(t, err, models.ErrAccountFrozen)
}
