package store

import (
	"context"

	"melodix-server-go/internal/domain/auth/model"
)

// Column names accepted by Update. Keeping them here pins the partial-update
// contract shared by the memory and sqlite drivers.
const (
	FieldPassword        = "password"
	FieldFullName        = "full_name"
	FieldBio             = "bio"
	FieldImageURL        = "image_url"
	FieldActive          = "active"
	FieldRole            = "role"
	FieldResetToken      = "reset_token"
	FieldResetExpiration = "reset_expiration"
)

// Store is the user-store port consumed by the credential orchestrator.
// Finders return (nil, nil) when no record matches.
type Store interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	DSN    string
}
