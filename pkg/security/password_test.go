package security_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		MinLength:        8,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("pharmacy-pass-1", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("pharmacy-pass-1", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("wrong-pass-1", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	cfg := testPasswordConfig()
	cases := map[string]bool{
		"short1":      false,
		"lettersonly": false,
		"12345678":    false,
		"abcd1234":    true,
	}
	for password, valid := range cases {
		err := security.CheckPasswordStrength(password, cfg)
		if valid && err != nil {
			t.Fatalf("expected %q to pass, got %v", password, err)
		}
		if !valid && err == nil {
			t.Fatalf("expected %q to fail", password)
		}
	}
}

func TestGenerateURLToken(t *testing.T) {
	token, err := security.GenerateURLToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 bytes got %d", len(raw))
	}
	other, _ := security.GenerateURLToken(32)
	if other == token {
		t.Fatal("expected distinct tokens")
	}
	if _, err := security.GenerateURLToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestHashToken(t *testing.T) {
	a := security.HashToken("abc")
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
	if a != security.HashToken("abc") || a == security.HashToken("abd") {
		t.Fatal("hash must be deterministic and distinct")
	}
}
