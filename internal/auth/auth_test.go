package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (Service, *Tokens) {
	tokens := NewTokens("test-secret", TokenTTL)
	svc := NewService(repository.NewMemoryUserRepository(), tokens, domain.NewValidation(), hclog.NewNullLogger())
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	require.NoError(t, svc.Register(ctx, domain.Credentials{Email: "a@x.com", Password: "secret"}))

	err := svc.Register(ctx, domain.Credentials{Email: "A@X.com", Password: "other"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	token, err := svc.Login(ctx, domain.Credentials{Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)

	_, err = svc.Login(ctx, domain.Credentials{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, wrongErr := svc.Login(ctx, domain.Credentials{Email: "nobody@x.com", Password: "secret"})
	assert.ErrorIs(t, wrongErr, domain.ErrInvalidCredentials)
	assert.Equal(t, err.Error(), wrongErr.Error())
}

func TestRegisterValidation(t *testing.T) {
	testCases := []struct {
		name  string
		creds domain.Credentials
	}{
		{"missing email", domain.Credentials{Password: "secret"}},
		{"malformed email", domain.Credentials{Email: "not-an-email", Password: "secret"}},
		{"missing password", domain.Credentials{Email: "a@x.com"}},
		{"password too long", domain.Credentials{Email: "a@x.com", Password: strings.Repeat("p", 73)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService()
			err := svc.Register(context.Background(), tc.creds)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("test-secret", TokenTTL)
	user := &domain.User{ID: "u1", Role: domain.RoleAdmin}

	expired := NewTokens("test-secret", TokenTTL)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expiredToken, err := expired.Issue(user)
	require.NoError(t, err)

	otherSecret, err := NewTokens("other-secret", TokenTTL).Issue(user)
	require.NoError(t, err)

	noRole, err := tokens.Issue(&domain.User{ID: "u1"})
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u1", Role: domain.RoleAdmin})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		ID:   "u1",
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	hs512Token, err := hs512.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	testCases := map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"expired":       expiredToken,
		"wrong secret":  otherSecret,
		"missing role":  noRole,
		"alg none":      noneToken,
		"other hs algo": hs512Token,
	}

	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractToken("bearer  abc "))
	assert.Equal(t, "abc", ExtractToken("abc"))
	assert.Equal(t, "", ExtractToken(""))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)
	assert.True(t, VerifyPassword(hash, "secret"))
	assert.False(t, VerifyPassword(hash, "Secret"))
	assert.False(t, VerifyPassword("", "secret"))
}
