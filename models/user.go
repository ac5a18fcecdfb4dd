package models

import (
	"time"

	"watchlist/internal/auth"
)

// User represents the single account that owns the watchlist
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:20;not null" json:"name"`
	Username     string    `gorm:"size:20;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"` // Never serialize password
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// SetPassword replaces the stored hash with a bcrypt hash of password
func (u *User) SetPassword(password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// ValidatePassword reports whether password matches the stored hash.
// Users without a hash never validate.
func (u *User) ValidatePassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return auth.CheckPassword(u.PasswordHash, password)
}
