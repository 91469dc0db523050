// Package auth implements bearer-token issuance and verification,
// password hashing, and the process-wide TokenStore backing password
// resets and scheduler idempotency markers.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/models"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims embeds the registered claims with the identity and token-type
// fields every protected endpoint resolves.
type Claims struct {
	UserID int64           `json:"userId"`
	Role   models.UserRole `json:"role"`
	Type   TokenType       `json:"type"`
	jwt.RegisteredClaims
}

// refreshJTIPrefix namespaces refresh-token rotation bookkeeping in the
// shared TokenStore, alongside reset tokens and reminder markers.
const refreshJTIPrefix = "refresh-jti:"

// TokenIssuer signs and verifies HS256 access/refresh token pairs, and
// tracks each issued refresh token's jti in a TokenStore so it can be
// consumed exactly once: Refresh rejects any jti it cannot find, which
// is true both for unknown tokens and for ones already rotated away.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tokens     TokenStore
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, tokens TokenStore) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, tokens: tokens}
}

// TokenPair is the access/refresh pair returned from login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds, access token lifetime
}

func (i *TokenIssuer) Issue(ctx context.Context, userID int64, role models.UserRole) (TokenPair, error) {
	access, _, err := i.sign(userID, role, TokenAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, jti, err := i.sign(userID, role, TokenRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := i.tokens.Put(ctx, refreshJTIPrefix+jti, "1", int(i.refreshTTL.Seconds())); err != nil {
		return TokenPair{}, apperr.Wrap(apperr.Internal, "record refresh token", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int(i.accessTTL.Seconds())}, nil
}

func (i *TokenIssuer) sign(userID int64, role models.UserRole, typ TokenType, ttl time.Duration) (signed, jti string, err error) {
	now := time.Now()
	jti = uuid.NewString()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err = token.SignedString(i.secret)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return signed, jti, nil
}

// Verify parses and validates a token, requiring it to carry the given
// type (access vs refresh) so a refresh token cannot be replayed as a
// bearer credential and vice versa.
func (i *TokenIssuer) Verify(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.Unauthenticated, "invalid or expired token")
	}
	if claims.Type != want {
		return nil, apperr.New(apperr.Unauthenticated, "unexpected token type")
	}
	return claims, nil
}

// Refresh rotates both tokens given a valid, non-expired refresh token.
// The token's jti must still be on record in the TokenStore; Refresh
// consumes it atomically (TakeOnce), so presenting the same refresh
// token twice, whether by a legitimate retry racing itself or a
// replayed, leaked token, succeeds at most once.
func (i *TokenIssuer) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	claims, err := i.Verify(raw, TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	_, ok, err := i.tokens.TakeOnce(ctx, refreshJTIPrefix+claims.ID)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.Internal, "check refresh token record", err)
	}
	if !ok {
		return TokenPair{}, apperr.New(apperr.Unauthenticated, "refresh token already used or unknown")
	}
	return i.Issue(ctx, claims.UserID, claims.Role)
}
