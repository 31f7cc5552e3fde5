package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/database/model"
	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/util/crypto"
	"github.com/prestamos-sa/prestamos/web/entity"
)

const (
	DefaultTokenTTL = 30 * time.Minute
	TokenType       = "bearer"
	tokenIssuer     = "prestamos"
)

// Claims is the signed claim set of an access token. The subject is the
// username of the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 access tokens with a key that is fixed
// for the lifetime of the process.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// SetClock replaces the time source used for issuing and checking expiry.
func (t *TokenIssuer) SetClock(now func() time.Time) {
	t.now = now
}

// TTL returns the validity window applied by IssueDefault.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs {sub, iat, exp = now + ttl}.
func (t *TokenIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// IssueDefault signs a token with the configured ttl.
func (t *TokenIssuer) IssueDefault(subject string) (string, error) {
	return t.Issue(subject, t.ttl)
}

// Parse checks signature, algorithm, issuer and expiry and returns the claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("token is empty")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// AuthService implements login and bearer-token verification on top of the
// users table.
type AuthService struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// Authenticate finds the user addressed by any of the supplied identifiers
// (OR semantics) whose password matches. A missing user and a wrong password
// both yield ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, form entity.LoginForm) (*model.User, error) {
	form.Normalize()
	if !form.HasIdentifier() {
		return nil, fmt.Errorf("%w: username, email or phone is required", ErrInvalid)
	}

	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if form.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, form.Username)
	}
	if form.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, form.Email)
	}
	if form.Phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, form.Phone)
	}

	var candidates []model.User
	err := s.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Order("id ASC").
		Find(&candidates).
		Error
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		crypto.BurnPasswordCheck(form.Password)
		return nil, ErrUnauthorized
	}
	for i := range candidates {
		if crypto.CheckPasswordHash(candidates[i].Password, form.Password) {
			return &candidates[i], nil
		}
	}
	return nil, ErrUnauthorized
}

// Login authenticates the form and issues an access token for the user.
func (s *AuthService) Login(ctx context.Context, form entity.LoginForm) (*entity.Token, *model.User, error) {
	user, err := s.Authenticate(ctx, form)
	if err != nil {
		return nil, nil, err
	}
	tok, err := s.tokens.IssueDefault(user.Username)
	if err != nil {
		return nil, nil, err
	}
	return &entity.Token{AccessToken: tok, TokenType: TokenType}, user, nil
}

// Verify resolves a bearer token to a live user. Every failure, including a
// valid token whose user was deleted, is ErrUnauthorized. A token issued
// before its subject's account was created belonged to an earlier holder of
// the username and is rejected.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		logger.Debug("token rejected:", err)
		return nil, ErrUnauthorized
	}

	user := &model.User{}
	err = s.db.WithContext(ctx).
		Where("username = ?", claims.Subject).
		First(user).
		Error
	if database.IsNotFound(err) {
		logger.Debugf("token subject %q no longer exists", claims.Subject)
		return nil, ErrUnauthorized
	} else if err != nil {
		return nil, err
	}
	// iat has second precision.
	if claims.IssuedAt == nil || claims.IssuedAt.Before(user.CreatedAt.Truncate(time.Second)) {
		logger.Debugf("token for %q predates the account", claims.Subject)
		return nil, ErrUnauthorized
	}
	return user, nil
}
