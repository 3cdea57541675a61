package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignJWT(secret, "user-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(secret, token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignJWT(secret, "user-1", "", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	cases := map[string]struct {
		secret []byte
		token  string
	}{
		"wrong secret": {secret: []byte("other"), token: token},
		"garbage":      {secret: secret, token: "not.a.jwt"},
		"empty":        {secret: secret, token: ""},
	}
	for name, tc := range cases {
		if _, err := VerifyJWT(tc.secret, tc.token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestSecretFor(t *testing.T) {
	if _, err := SecretFor("production", ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret in production, got %v", err)
	}
	got, err := SecretFor("dev", "")
	if err != nil || string(got) != devSecret {
		t.Fatalf("expected dev secret, got %q %v", got, err)
	}
	got, err = SecretFor("prod", " abc ")
	if err != nil || string(got) != "abc" {
		t.Fatalf("expected trimmed secret, got %q %v", got, err)
	}
}
