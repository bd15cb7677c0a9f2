package model

import "time"

// Roles assignable to a credential.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the canonical credential record owned by the user store.
type User struct {
	ID              uint       `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Password        string     `json:"-"`
	FullName        string     `json:"full_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Active          bool       `json:"is_active"`
	Role            string     `json:"role"`
	ResetToken      string     `json:"-"`
	ResetExpiration *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserView is the denormalized identity snapshot embedded in sessions and
// served from the user cache. It never carries secrets.
type UserView struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// View projects the record into its cacheable snapshot.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
