package utils // package utils provides helpers for token creation, cookies and ids

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token type discriminators carried in the token_type claim. A refresh token
// is never accepted where an access token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenProfile is the user profile embedded in every signed token. It mirrors
// the users table minus the password hash, which never leaves storage.
type TokenProfile struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

// SessionClaims is the full claim set signed into access and refresh tokens.
type SessionClaims struct {
	User      TokenProfile `json:"user"`
	TokenType string       `json:"token_type"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized token with its expiry so callers can set
// cookie lifetimes without re-parsing.
type SignedToken struct {
	Value string
	Exp   time.Time
}

// Sentinel errors returned by ParseToken. Expiry is reported separately from
// all other verification failures because the auth gate treats an expired
// access token as a renewal opportunity, not a rejection.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrWrongTokenType = errors.New("unexpected token type")
)

// NewAccessToken signs a short-lived HS256 access token for the given profile.
func NewAccessToken(secret string, profile TokenProfile, ttl time.Duration) (SignedToken, error) {
	return signToken(secret, profile, TokenTypeAccess, ttl)
}

// NewRefreshToken signs a long-lived HS256 refresh token for the given profile.
// The serialized value is also persisted on the session row so it can be
// revoked by exact lookup.
func NewRefreshToken(secret string, profile TokenProfile, ttl time.Duration) (SignedToken, error) {
	return signToken(secret, profile, TokenTypeRefresh, ttl)
}

func signToken(secret string, profile TokenProfile, typ string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := SessionClaims{
		User:      profile,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.UniqueID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Value: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry of raw, checks the token_type
// discriminator against wantType, and returns the embedded profile. Expired
// tokens return ErrTokenExpired; every other failure maps to ErrTokenInvalid
// or ErrWrongTokenType.
func ParseToken(secret, raw, wantType string) (TokenProfile, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenProfile{}, ErrTokenExpired
		}
		return TokenProfile{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return TokenProfile{}, ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return TokenProfile{}, ErrWrongTokenType
	}
	return claims.User, nil
}
