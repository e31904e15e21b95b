package authapp_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authapp "gitlab.com/ucmsv2/accounts/internal/application/auth"
	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
)

func newIssuer(t *testing.T, ttl time.Duration) *authapp.TokenIssuer {
	t.Helper()
	ti, err := authapp.NewTokenIssuer(authapp.Args{Secret: fixtures.TestTokenSecret, TTL: ttl})
	require.NoError(t, err)
	return ti
}

func TestNewTokenIssuer(t *testing.T) {
	_, err := authapp.NewTokenIssuer(authapp.Args{Secret: "short"})
	assert.ErrorIs(t, err, authapp.ErrShortSecret)

	_, err = authapp.NewTokenIssuer(authapp.Args{Secret: fixtures.TestTokenSecret, TTL: -time.Second})
	assert.Error(t, err)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ti := newIssuer(t, 0)

	token, err := ti.Issue(ctx, fixtures.ValidUserID)
	require.NoError(t, err)

	authapp.NewJWTTokenAssertion(t, token, []byte(fixtures.TestTokenSecret)).
		AssertValid().
		AssertISS(authapp.ISS).
		AssertSub(authapp.UserSubject).
		AssertUID(fixtures.ValidUserID.String()).
		AssertIAT(time.Now()).
		AssertNoExp()

	id, err := ti.Decode(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, fixtures.ValidUserID, id)
}

func TestTokenIssuer_WithTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ti := newIssuer(t, time.Hour)

	token, err := ti.Issue(ctx, fixtures.ValidUserID)
	require.NoError(t, err)

	authapp.NewJWTTokenAssertion(t, token, []byte(fixtures.TestTokenSecret)).
		AssertExp(time.Now().Add(time.Hour))

	id, err := ti.Decode(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, fixtures.ValidUserID, id)
}

func TestTokenIssuer_Issue_ZeroID(t *testing.T) {
	_, err := newIssuer(t, 0).Issue(context.Background(), user.ID{})
	assert.Error(t, err)
}

func TestTokenIssuer_Decode_Rejects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ti := newIssuer(t, 0)

	valid, err := ti.Issue(ctx, fixtures.ValidUserID)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	goodClaims := authapp.Claims{
		UserID: fixtures.ValidUserID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  authapp.ISS,
			Subject: authapp.UserSubject,
		},
	}
	expired := goodClaims
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := goodClaims
	wrongIssuer.Issuer = "someone-else"
	noUID := goodClaims
	noUID.UserID = ""

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "tampered payload", token: tampered},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("another-secret-of-enough-length"), goodClaims)},
		{name: "alg none", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, goodClaims)},
		{name: "different hmac alg", token: sign(jwt.SigningMethodHS512, []byte(fixtures.TestTokenSecret), goodClaims)},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte(fixtures.TestTokenSecret), expired)},
		{name: "wrong issuer", token: sign(jwt.SigningMethodHS256, []byte(fixtures.TestTokenSecret), wrongIssuer)},
		{name: "missing uid", token: sign(jwt.SigningMethodHS256, []byte(fixtures.TestTokenSecret), noUID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ti.Decode(ctx, tt.token)
			assert.True(t, id.IsZero())
			assert.ErrorIs(t, err, authapp.ErrInvalidToken)
			assert.True(t, errorx.IsCode(err, errorx.CodeInvalidToken))
		})
	}
}

func TestTokenIssuer_TTLRequiresExpiry(t *testing.T) {
	ctx := context.Background()

	noExpiry, err := newIssuer(t, 0).Issue(ctx, fixtures.ValidUserID)
	require.NoError(t, err)

	_, err = newIssuer(t, time.Hour).Decode(ctx, noExpiry)
	assert.ErrorIs(t, err, authapp.ErrInvalidToken)
}
