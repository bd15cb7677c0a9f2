package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"melodix-server-go/internal/domain/auth/model"
)

type memoryStore struct {
	users  map[uint]model.User
	nextID uint
	mutex  sync.RWMutex
}

// NewMemory builds an in-memory user store. It enforces the same email and
// username uniqueness the sqlite driver gets from its unique indexes.
func NewMemory() Store {
	return &memoryStore{
		users:  make(map[uint]model.User),
		nextID: 1,
	}
}

func (s *memoryStore) FindByID(_ context.Context, id uint) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) Create(_ context.Context, user *model.User) error {
	if user.Email == "" || user.Username == "" {
		return fmt.Errorf("email and username required")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email already exists: %s", user.Email)
		}
		if existing.Username == user.Username {
			return fmt.Errorf("username already exists: %s", user.Username)
		}
	}

	now := time.Now()
	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *memoryStore) Update(_ context.Context, id uint, fields map[string]any) (*model.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %d", id)
	}

	for field, value := range fields {
		switch field {
		case FieldPassword:
			user.Password = value.(string)
		case FieldFullName:
			user.FullName = value.(string)
		case FieldBio:
			user.Bio = value.(string)
		case FieldImageURL:
			user.ImageURL = value.(string)
		case FieldActive:
			user.Active = value.(bool)
		case FieldRole:
			user.Role = value.(string)
		case FieldResetToken:
			if value == nil {
				user.ResetToken = ""
			} else {
				user.ResetToken = value.(string)
			}
		case FieldResetExpiration:
			if value == nil {
				user.ResetExpiration = nil
			} else {
				exp := value.(time.Time)
				user.ResetExpiration = &exp
			}
		default:
			return nil, fmt.Errorf("unknown field: %s", field)
		}
	}

	user.UpdatedAt = time.Now()
	s.users[id] = user
	return &user, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
