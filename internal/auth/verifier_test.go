package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	credential := mintToken(t, testSecret, Claims{
		UserID: "u42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userID, err := v.Verify(credential)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "u42" {
		t.Errorf("userID = %q, want u42", userID)
	}
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	credential := mintToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u43",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	userID, err := v.Verify(credential)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "u43" {
		t.Errorf("userID = %q, want u43", userID)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	credential := mintToken(t, testSecret, Claims{
		UserID: "u42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := v.Verify(credential); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyRejectsBadCredentials(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	tests := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", mintToken(t, "other-secret", Claims{UserID: "u42"})},
		{"no user id", mintToken(t, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.credential); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
