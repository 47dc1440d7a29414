package service

import (
	"strings"
	"testing"
)

func TestCredentialService_HashAndCheck(t *testing.T) {
	svc := NewCredentialService(10)

	hash, err := svc.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash prefix = %q, want bcrypt $2a$", hash[:4])
	}
	if len(hash) != 60 {
		t.Errorf("hash length = %d, want 60", len(hash))
	}

	if !svc.CheckPassword("correct horse battery", hash) {
		t.Error("CheckPassword() with the right password should succeed")
	}
	if svc.CheckPassword("wrong password", hash) {
		t.Error("CheckPassword() with the wrong password should fail")
	}
}

func TestCredentialService_HashesAreSalted(t *testing.T) {
	svc := NewCredentialService(10)

	a, err := svc.HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	b, err := svc.HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ by salt")
	}
}
