package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"melodix-server-go/internal/domain/auth/model"
	platformerrors "melodix-server-go/internal/platform/errors"
	"melodix-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a gorm-backed user store.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var record storage.User
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "user.find_by_id", "failed to find user", err)
	}
	return fromModel(&record), nil
}

func (s *sqliteStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, "user.find_by_email", "email = ?", email)
}

func (s *sqliteStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, "user.find_by_username", "username = ?", username)
}

func (s *sqliteStore) findOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	var record storage.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to find user", err)
	}
	return fromModel(&record), nil
}

func (s *sqliteStore) Create(ctx context.Context, user *model.User) error {
	record := toModel(user)
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "user.create", "failed to create user", err)
	}
	user.ID = record.ID
	user.CreatedAt = record.CreatedAt
	user.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *sqliteStore) Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error) {
	updates := make(map[string]any, len(fields))
	for field, value := range fields {
		switch field {
		case FieldPassword, FieldFullName, FieldBio, FieldImageURL,
			FieldActive, FieldRole, FieldResetToken, FieldResetExpiration:
			updates[field] = value
		default:
			return nil, fmt.Errorf("unknown field: %s", field)
		}
	}

	result := s.db.WithContext(ctx).Model(&storage.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "user.update", "failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	return s.FindByID(ctx, id)
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func toModel(user *model.User) *storage.User {
	return &storage.User{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Password:        user.Password,
		FullName:        user.FullName,
		Bio:             user.Bio,
		ImageURL:        user.ImageURL,
		Active:          user.Active,
		Role:            user.Role,
		ResetToken:      user.ResetToken,
		ResetExpiration: cloneTime(user.ResetExpiration),
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func fromModel(record *storage.User) *model.User {
	return &model.User{
		ID:              record.ID,
		Username:        record.Username,
		Email:           record.Email,
		Password:        record.Password,
		FullName:        record.FullName,
		Bio:             record.Bio,
		ImageURL:        record.ImageURL,
		Active:          record.Active,
		Role:            record.Role,
		ResetToken:      record.ResetToken,
		ResetExpiration: cloneTime(record.ResetExpiration),
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cloned := *t
	return &cloned
}
