package models

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility states. Drafts are visible only to their author.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is an authored blog entry with a draft/published lifecycle. The slug
// is derived deterministically from the title and recomputed on every save.
type Post struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"not null" json:"title"`
	ShortDescription string         `json:"short_description"`
	Content          string         `gorm:"not null" json:"content"`
	Slug             string         `gorm:"uniqueIndex;not null" json:"slug"`
	Status           string         `gorm:"not null;default:draft" json:"status"`
	UserID           uint           `gorm:"not null" json:"user_id"`
	User             User           `gorm:"foreignKey:UserID" json:"user"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Published reports whether the post is visible to readers other than its author.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}
