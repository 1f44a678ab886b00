package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession covers missing, malformed, tampered, and expired session
// tokens alike.
var ErrInvalidSession = errors.New("invalid or expired session")

// Token types, so an admin session token cannot be replayed as a success
// token or vice versa.
const (
	tokenTypeAdminSession = "admin_session"
	tokenTypeSuccess      = "success"
)

// successTokenTTL bounds how long the post-registration success page can be
// revisited.
const successTokenTTL = 5 * time.Minute

// sessionClaims is the JWT payload for both admin sessions and success-page
// tokens, distinguished by Type.
type sessionClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies HMAC-signed session tokens carried in
// cookies. The secret is process-wide configuration: rotating it deliberately
// invalidates every outstanding session.
type SessionService struct {
	Secret []byte

	// TTL is the admin session lifetime.
	TTL time.Duration
}

// IssueAdmin mints a signed admin session token for username.
func (s *SessionService) IssueAdmin(username string) (string, time.Time, error) {
	return s.issue(username, tokenTypeAdminSession, s.TTL)
}

// VerifyAdmin checks an admin session token and returns the username plus
// the time remaining before expiry (so callers can decide to renew).
func (s *SessionService) VerifyAdmin(token string) (string, time.Duration, error) {
	return s.verify(token, tokenTypeAdminSession)
}

// IssueSuccess mints the short-lived token that gates the registration
// success page.
func (s *SessionService) IssueSuccess(username string) (string, time.Time, error) {
	return s.issue(username, tokenTypeSuccess, successTokenTTL)
}

// VerifySuccess checks a success-page token and returns the registered
// username.
func (s *SessionService) VerifySuccess(token string) (string, error) {
	username, _, err := s.verify(token, tokenTypeSuccess)
	return username, err
}

func (s *SessionService) issue(
	subject, typ string,
	ttl time.Duration,
) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := sessionClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *SessionService) verify(token, wantType string) (string, time.Duration, error) {
	var claims sessionClaims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", 0, ErrInvalidSession
	}

	if claims.Type != wantType || claims.Subject == "" {
		return "", 0, ErrInvalidSession
	}

	return claims.Subject, time.Until(claims.ExpiresAt.Time), nil
}
