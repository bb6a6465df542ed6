package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/service"
	"github.com/slotswap/swap_backend/internal/service/servicetest"
)

func newAuthService(t *testing.T, ttl time.Duration) *service.AuthService {
	t.Helper()
	db := servicetest.NewDB()
	return service.NewAuthService(db.Stores().Users, "test-secret", ttl, zap.NewNop())
}

func TestSignupLoginRoundTrip(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	signed, err := auth.Signup(ctx, "Alice", "Alice@Example.COM", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, signed.Token)
	require.Equal(t, "Alice", signed.User.Name)
	// Email нормализуется при регистрации
	require.Equal(t, "alice@example.com", signed.User.Email)

	userID, err := auth.ParseToken(signed.Token)
	require.NoError(t, err)
	require.Equal(t, signed.User.ID, userID)

	// Логин в любом регистре email
	logged, err := auth.Login(ctx, "ALICE@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, signed.User.ID, logged.User.ID)
	require.NotEmpty(t, logged.Token)
}

func TestSignupValidation(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "A", "alice@example.com", "secret")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = auth.Signup(ctx, "Alice", "not-an-email", "secret")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = auth.Signup(ctx, "Alice", "alice@example.com", "abc")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSignupDuplicateEmailIsConflict(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	// Регистр не спасает от дубликата
	_, err = auth.Signup(ctx, "Other Alice", "ALICE@example.com", "secret")
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice@example.com", "wrong")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = auth.Login(ctx, "nobody@example.com", "secret")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestParseTokenRejectsGarbageAndExpired(t *testing.T) {
	auth := newAuthService(t, time.Hour)

	_, err := auth.ParseToken("not.a.token")
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	// Токен с отрицательным TTL просрочен сразу после выпуска
	expiring := newAuthService(t, -time.Minute)
	signed, err := expiring.Signup(context.Background(), "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = expiring.ParseToken(signed.Token)
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth := newAuthService(t, time.Hour)
	signed, err := auth.Signup(context.Background(), "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	other := service.NewAuthService(servicetest.NewDB().Stores().Users, "other-secret", time.Hour, zap.NewNop())
	_, err = other.ParseToken(signed.Token)
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}
