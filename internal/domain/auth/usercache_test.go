package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"melodix-server-go/internal/domain/auth/model"
	platformtesting "melodix-server-go/internal/platform/testing"
)

func TestUserCachePutGetInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, client := platformtesting.SetupTestRedis(t)
	cache := NewUserCache(client, 5*time.Minute, nopLogger{})

	view := testView()
	if err := cache.Put(ctx, view); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if ttl := mr.TTL("user_cache:42"); ttl != 5*time.Minute {
		t.Fatalf("expected ttl 5m, got %s", ttl)
	}

	got, err := cache.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != view.Username || got.Email != view.Email {
		t.Fatalf("unexpected view: %+v", got)
	}

	if err := cache.Invalidate(ctx, view.ID); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, err := cache.Get(ctx, view.ID); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestUserCacheFetchPopulatesOnMiss(t *testing.T) {
	ctx := context.Background()
	_, client := platformtesting.SetupTestRedis(t)
	cache := NewUserCache(client, 5*time.Minute, nopLogger{})

	calls := 0
	load := func(context.Context) (*model.UserView, error) {
		calls++
		view := testView()
		return &view, nil
	}

	got, err := cache.Fetch(ctx, 42, load)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("unexpected view: %+v", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", calls)
	}

	// Second fetch is served from the cache.
	if _, err := cache.Fetch(ctx, 42, load); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit, loader called %d times", calls)
	}
}

func TestUserCacheFetchEntryExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := platformtesting.SetupTestRedis(t)
	cache := NewUserCache(client, 5*time.Minute, nopLogger{})

	calls := 0
	load := func(context.Context) (*model.UserView, error) {
		calls++
		view := testView()
		return &view, nil
	}

	if _, err := cache.Fetch(ctx, 42, load); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	mr.FastForward(6 * time.Minute)
	if _, err := cache.Fetch(ctx, 42, load); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected reload after expiry, got %d loader calls", calls)
	}
}

func TestUserCacheFetchLoaderFailure(t *testing.T) {
	ctx := context.Background()
	_, client := platformtesting.SetupTestRedis(t)
	cache := NewUserCache(client, 5*time.Minute, nopLogger{})

	wantErr := errors.New("store down")
	_, err := cache.Fetch(ctx, 42, func(context.Context) (*model.UserView, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}
}
