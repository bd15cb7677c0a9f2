package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(4) // minimum cost keeps the test fast

	hash, err := hasher.Hash("s3cret-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !hasher.Verify("s3cret-password", hash) {
		t.Fatal("expected verification success")
	}
	if hasher.Verify("wrong-password", hash) {
		t.Fatal("expected verification failure")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	hasher := NewPasswordHasher(4)

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for identical passwords")
	}
}

func TestHashEmptyPasswordFails(t *testing.T) {
	if _, err := NewPasswordHasher(4).Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
