package cryptox

import (
	"errors"
	"strings"
	"testing"

	"github.com/okulikov/authd/internal/common"
)

func TestHashPassword_Format(t *testing.T) {
	encoded, err := HashPassword([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", encoded)
	}
	if strings.Contains(encoded, "correct horse") {
		t.Fatalf("encoded record leaks the raw password")
	}
}

func TestHashPassword_SaltIsRandom(t *testing.T) {
	a, err := HashPassword([]byte("pw"))
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword([]byte("pw"))
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password are identical; salt is not random")
	}
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	encoded, err := HashPassword([]byte("p1"))
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if err := VerifyPassword(encoded, []byte("p1")); err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}

	err = VerifyPassword(encoded, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=1,p=4$AAAA$BBBB",
		"$argon2id$v=18$m=65536,t=1,p=4$AAAA$BBBB",
		"$argon2id$v=19$m=1,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$BBBB",
	}
	for _, encoded := range tests {
		err := VerifyPassword(encoded, []byte("pw"))
		if err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
		if errors.Is(err, common.ErrInvalidCredential) {
			t.Fatalf("malformed record %q reported as credential mismatch", encoded)
		}
	}
}
