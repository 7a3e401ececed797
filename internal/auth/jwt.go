// Package auth issues and checks bearer tokens and hashes passwords.
//
// AUTHENTICATION FLOW:
//  1. A user registers or logs in at /rest/auth/register or /rest/auth/login
//     (or the register/login GraphQL mutations).
//  2. The server verifies the bcrypt hash and issues a signed JWT.
//  3. The token comes back in the JSON body and in an HttpOnly cookie.
//  4. Later requests send it as "Authorization: Bearer <token>" or via the
//     cookie; RequireAuth and OptionalAuth validate it and put the claims
//     in the request context.
//
// WHY JWT?
// Tokens are stateless: the user id and expiry live inside the signed token,
// so validating a request needs the secret and no database lookup. The
// trade-off is that a token cannot be revoked before it expires; keep
// JWT_EXPIRES_IN short enough to live with that.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"42","email":"...","iss":"blog-api","exp":...,"jti":"..."}
//	- Signature: HMAC-SHA256(header + "." + payload, secret)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer     = "blog-api"
	DefaultTTL = 24 * time.Hour
)

// ErrTokenExpired lets callers tell an expired session from a forged one.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService issues and validates HS256 tokens. The subject is the user
// id; the email travels as a private claim.
//
// The same secret signs and verifies, so it must stay on the server. Rotating
// it logs every user out.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 characters. ttl <= 0
// uses DefaultTTL.
//
// In production use at least 32 random bytes, e.g.
// JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Claims is what a valid token says about its bearer.
type Claims struct {
	UserID int64
	Email  string
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token for the user that lives for the configured TTL.
func (s *TokenService) Generate(userID int64, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration is Generate with an explicit lifetime. A negative
// duration produces an already expired token.
//
// Every token gets a unique jti (an xid), so two tokens issued for the same
// user in the same second still differ.
func (s *TokenService) GenerateWithDuration(userID int64, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry, in that order of
// trust, and returns the bearer's claims.
//
// RULE: the algorithm is pinned to HS256. Accepting whatever "alg" the header
// names would let a forged token select "none" or an asymmetric algorithm
// keyed with our own secret.
//
// An expired but otherwise valid token yields ErrTokenExpired so callers can
// ask the client to log in again instead of reporting a forgery.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, errors.New("auth: token has no valid subject")
	}

	return &Claims{UserID: userID, Email: c.Email}, nil
}
