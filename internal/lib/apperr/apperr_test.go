package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestGenericSentinelMatchesKind(t *testing.T) {
	err := NotFound("chat", "abc")

	if !errors.Is(err, ErrNotFound) {
		t.Fatal("NotFound should match ErrNotFound")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("NotFound must not match ErrValidation")
	}
}

func TestCodedSentinelRequiresExactCode(t *testing.T) {
	// Every coded error is still an authentication error.
	if !errors.Is(ErrTokenExpired, ErrAuthentication) {
		t.Fatal("expired token should match the generic authentication sentinel")
	}
	// But codes never match each other.
	if errors.Is(ErrTokenExpired, ErrTokenRevoked) {
		t.Fatal("expired must not match revoked")
	}
	if errors.Is(ErrInvalidCredential, ErrInvalidToken) {
		t.Fatal("credential must not match token")
	}
}

func TestMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve plugin key: %w", ErrInvalidCredential)

	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatal("wrapped coded error should still match")
	}
	if !errors.Is(err, ErrAuthentication) {
		t.Fatal("wrapped coded error should still match its kind")
	}
	if KindOf(err) != KindAuthentication {
		t.Fatalf("KindOf through wrapping: got %q", KindOf(err))
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if kind := KindOf(errors.New("disk on fire")); kind != "" {
		t.Fatalf("expected empty kind, got %q", kind)
	}
}

func TestConstructorMessages(t *testing.T) {
	err := Validation("limit %d out of range", 500)
	if err.Error() != "limit 500 out of range" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	err = NotFound("user", "u-1")
	if err.Error() != "user 'u-1' not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
