package service

import (
	"context"
	"testing"
	"time"

	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/util/crypto"
	"github.com/prestamos-sa/prestamos/web/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *TokenIssuer) {
	t.Helper()
	db := newTestDB(t)
	mustCreateUser(t, db, "ana", "ana@example.com", "600111222", "secret-ana")
	mustCreateUser(t, db, "luis", "luis@example.com", "600333444", "secret-luis")
	tokens := NewTokenIssuer([]byte(testSecret), DefaultTokenTTL)
	return NewAuthService(db, tokens), tokens
}

func TestAuthenticateByEachIdentifier(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	forms := map[string]entity.LoginForm{
		"username":        {Username: "ana", Password: "secret-ana"},
		"email":           {Email: "ana@example.com", Password: "secret-ana"},
		"email mixedcase": {Email: "  Ana@Example.COM ", Password: "secret-ana"},
		"phone":           {Phone: "600111222", Password: "secret-ana"},
	}
	for name, form := range forms {
		t.Run(name, func(t *testing.T) {
			user, err := auth.Authenticate(ctx, form)
			require.NoError(t, err)
			assert.Equal(t, "ana", user.Username)
		})
	}
}

func TestAuthenticateOrSemantics(t *testing.T) {
	auth, _ := newAuthFixture(t)

	// A stale email does not block a correct username.
	user, err := auth.Authenticate(context.Background(), entity.LoginForm{
		Username: "ana",
		Email:    "nobody@example.com",
		Password: "secret-ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)

	// Identifiers of two users: the one whose password matches wins.
	user, err = auth.Authenticate(context.Background(), entity.LoginForm{
		Username: "ana",
		Email:    "luis@example.com",
		Password: "secret-luis",
	})
	require.NoError(t, err)
	assert.Equal(t, "luis", user.Username)
}

func TestAuthenticateRejections(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Authenticate(ctx, entity.LoginForm{Username: "ana", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Authenticate(ctx, entity.LoginForm{Username: "ghost", Password: "secret-ana"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Authenticate(ctx, entity.LoginForm{Password: "secret-ana"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	auth, tokens := newAuthFixture(t)
	ctx := context.Background()

	token, user, err := auth.Login(ctx, entity.LoginForm{Username: "luis", Password: "secret-luis"})
	require.NoError(t, err)
	assert.Equal(t, TokenType, token.TokenType)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := tokens.Parse(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Username, claims.Subject)

	verified, err := auth.Verify(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Id, verified.Id)
}

func TestTokenExpiry(t *testing.T) {
	auth, tokens := newAuthFixture(t)
	ctx := context.Background()

	issuedAt := time.Now().UTC().Truncate(time.Second).Add(time.Second)
	tokens.SetClock(fixedClock(issuedAt))
	token, _, err := auth.Login(ctx, entity.LoginForm{Username: "ana", Password: "secret-ana"})
	require.NoError(t, err)

	tokens.SetClock(fixedClock(issuedAt.Add(29 * time.Minute)))
	_, err = auth.Verify(ctx, token.AccessToken)
	assert.NoError(t, err)

	tokens.SetClock(fixedClock(issuedAt.Add(31 * time.Minute)))
	_, err = auth.Verify(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	auth, tokens := newAuthFixture(t)
	ctx := context.Background()

	other := NewTokenIssuer([]byte("another_secret_that_is_long_enough_000"), time.Minute)
	forged, err := other.IssueDefault("ana")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "ana",
		"iss": tokenIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ana",
		"iss": tokenIssuer,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	ghost, err := tokens.IssueDefault("ghost")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":         "not-a-jwt",
		"empty":           "",
		"other secret":    forged,
		"alg none":        noneToken,
		"no expiry":       noExp,
		"unknown subject": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Verify(ctx, token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestVerifyRejectsTokenOfReusedUsername(t *testing.T) {
	auth, tokens := newAuthFixture(t)
	ctx := context.Background()

	token, ana, err := auth.Login(ctx, entity.LoginForm{Username: "ana", Password: "secret-ana"})
	require.NoError(t, err)
	_, err = auth.Verify(ctx, token.AccessToken)
	require.NoError(t, err)

	_, err = NewUserService(auth.db).UpdateUser(ctx, ana.Id, entity.UserUpdate{Username: strPtr("ana-old")})
	require.NoError(t, err)

	hash, err := crypto.HashPasswordAsBcrypt("secret-new")
	require.NoError(t, err)
	registeredAt := time.Now().Add(time.Minute)
	newcomer := &model.User{
		Username:  "ana",
		Email:     "newcomer@example.com",
		Password:  hash,
		CreatedAt: registeredAt,
	}
	require.NoError(t, auth.db.Create(newcomer).Error)

	_, err = auth.Verify(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	tokens.SetClock(fixedClock(registeredAt.Add(time.Minute)))
	fresh, _, err := auth.Login(ctx, entity.LoginForm{Username: "ana", Password: "secret-new"})
	require.NoError(t, err)
	verified, err := auth.Verify(ctx, fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, newcomer.Id, verified.Id)
}

func TestVerifyAfterUserDeleted(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	token, user, err := auth.Login(ctx, entity.LoginForm{Username: "ana", Password: "secret-ana"})
	require.NoError(t, err)
	require.NoError(t, NewUserService(auth.db).DeleteUser(ctx, user.Id))

	_, err = auth.Verify(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
