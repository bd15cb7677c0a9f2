package auth

import (
	"context"
	"testing"
	"time"

	platformtesting "melodix-server-go/internal/platform/testing"
)

func TestRevokeMarksTokenImmediately(t *testing.T) {
	ctx := context.Background()
	_, client := platformtesting.SetupTestRedis(t)
	registry := NewRevocationRegistry(client, time.Hour, nopLogger{})

	revoked, err := registry.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatal("fresh token must not be revoked")
	}

	if err := registry.Revoke(ctx, "token-a", 30*time.Minute); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	revoked, err = registry.IsRevoked(ctx, "token-a")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be revoked")
	}
}

func TestRevokeTTLNeverBelowRetention(t *testing.T) {
	ctx := context.Background()
	mr, client := platformtesting.SetupTestRedis(t)
	registry := NewRevocationRegistry(client, time.Hour, nopLogger{})

	// A request below the retention window must be raised to it so the entry
	// cannot be evicted before the token's own expiry.
	if err := registry.Revoke(ctx, "token-b", time.Minute); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if ttl := mr.TTL("blacklist:token-b"); ttl < time.Hour {
		t.Fatalf("expected ttl >= 1h, got %s", ttl)
	}

	// A longer-lived token keeps its own TTL.
	if err := registry.Revoke(ctx, "token-c", 2*time.Hour); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if ttl := mr.TTL("blacklist:token-c"); ttl != 2*time.Hour {
		t.Fatalf("expected ttl 2h, got %s", ttl)
	}
}

func TestRevocationSurvivesUntilRetentionElapses(t *testing.T) {
	ctx := context.Background()
	mr, client := platformtesting.SetupTestRedis(t)
	registry := NewRevocationRegistry(client, time.Hour, nopLogger{})

	if err := registry.Revoke(ctx, "token-d", 0); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	mr.FastForward(59 * time.Minute)
	revoked, err := registry.IsRevoked(ctx, "token-d")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to stay revoked within retention")
	}

	mr.FastForward(2 * time.Minute)
	revoked, err = registry.IsRevoked(ctx, "token-d")
	if err != nil {
		t.Fatalf("IsRevoked error: %v", err)
	}
	if revoked {
		t.Fatal("expected entry to expire after retention")
	}
}
