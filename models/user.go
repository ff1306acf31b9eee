package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Admins are the only actors allowed to moderate content.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a forum account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:'user'" json:"role"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	Title        string    `gorm:"size:64" json:"title"`
	PostCount    int       `gorm:"not null;default:0" json:"post_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// BeforeCreate ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user holds the admin capability.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
