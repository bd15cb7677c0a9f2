package storage

import "time"

// User is the gorm persistence model for the users table. Email and username
// carry unique indexes; the store relies on them as the final uniqueness
// guard under concurrent registration.
type User struct {
	ID              uint   `gorm:"primarykey"`
	Username        string `gorm:"size:50;uniqueIndex;not null"`
	Email           string `gorm:"size:100;uniqueIndex;not null"`
	Password        string `gorm:"size:255;not null"`
	FullName        string `gorm:"size:100"`
	Bio             string `gorm:"type:text"`
	ImageURL        string `gorm:"size:255"`
	Active          bool   `gorm:"default:true"`
	Role            string `gorm:"size:50;default:user"`
	ResetToken      string `gorm:"size:500"`
	ResetExpiration *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
