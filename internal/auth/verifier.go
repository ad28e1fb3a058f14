// Package auth validates bearer credentials against the external identity
// service and admits exactly one live connection per user, evicting any prior
// login for the same user as part of the same critical section.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a credential is missing, malformed, or
	// fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a credential has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// TokenVerifier is the credential-verifier collaborator: it maps a bearer
// credential to the user id it was issued for.
type TokenVerifier interface {
	Verify(credential string) (userID string, err error)
}

// Claims is the token payload the verifier understands. Tokens are issued by
// the external identity service; this server only verifies them.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256-signed bearer tokens with a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the credential and returns the user id it
// carries.
func (v *JWTVerifier) Verify(credential string) (string, error) {
	if credential == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
