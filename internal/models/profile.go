package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultPicture is the sentinel picture reference assigned to every new
// profile. It is never deleted from media storage.
const DefaultPicture = "default.png"

// Profile is the one-to-one extension of a User. It carries the password
// recovery verification code and the profile picture reference. Every active
// user has exactly one profile; it is created in the same transaction as the
// user record.
type Profile struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	VerificationCode string         `json:"-"`
	CodeIssuedAt     *time.Time     `json:"-"`
	Picture          string         `gorm:"not null;default:default.png" json:"picture"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasCustomPicture reports whether the profile points at an uploaded picture
// rather than the default sentinel.
func (p *Profile) HasCustomPicture() bool {
	return p.Picture != "" && p.Picture != DefaultPicture
}
