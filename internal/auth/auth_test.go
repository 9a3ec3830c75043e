package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := Sign("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	userID, err := Verify("secret", token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user id 42, got %d", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Sign("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := Verify("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected invalid token error, got: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := Sign("secret", 42, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := Verify("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected invalid token error, got: %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify("secret", "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected invalid token error, got: %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "password123" {
		t.Error("Hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "password123") {
		t.Error("Correct password should verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("Wrong password must not verify")
	}
}
