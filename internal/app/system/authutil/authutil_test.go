package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword_Valid(t *testing.T) {
	for _, pw := range []string{"secret", "MyP@ssw0rd", strings.Repeat("a", MaxPasswordLength)} {
		if err := ValidatePassword(pw); err != nil {
			t.Errorf("expected %q to be valid, got %v", pw, err)
		}
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	for _, pw := range []string{"", "a", "abcde"} {
		if err := ValidatePassword(pw); err != ErrPasswordTooShort {
			t.Errorf("expected ErrPasswordTooShort for %q, got %v", pw, err)
		}
	}
}

func TestValidatePassword_TooLong(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" || hash == "SecurePassword123" {
		t.Fatalf("unexpected hash %q", hash)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected bcrypt hash, got %q", hash)
	}

	if !CheckPassword("SecurePassword123", hash) {
		t.Error("expected correct password to match")
	}
	if CheckPassword("WrongPassword456", hash) {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("", hash) {
		t.Error("expected empty password to fail")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, _ := HashPassword("same-password")
	h2, _ := HashPassword("same-password")
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("password", "not-a-valid-hash") {
		t.Error("expected CheckPassword to return false for invalid hash")
	}
}

func TestPasswordRules(t *testing.T) {
	if !strings.Contains(PasswordRules(), "6") {
		t.Error("expected PasswordRules to mention the minimum length")
	}
}
