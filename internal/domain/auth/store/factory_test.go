package store

import (
	"testing"

	"melodix-server-go/internal/platform/storage"
)

func TestFactoryMemoryDriver(t *testing.T) {
	s, err := New(Config{Driver: DriverMemory}, Dependencies{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if s == nil {
		t.Fatal("expected a store")
	}
}

func TestFactorySQLiteDriver(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	s, err := New(Config{Driver: DriverSQLite}, Dependencies{DB: db})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if s == nil {
		t.Fatal("expected a store")
	}

	// sqlite is the default driver and requires the handle.
	if _, err := New(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error without database handle")
	}
}

func TestFactoryUnknownDriver(t *testing.T) {
	if _, err := New(Config{Driver: "postgres"}, Dependencies{}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
