package models

import "time"

// Notification types.
const (
	NotificationReply     = "reply"
	NotificationBestReply = "best_reply"
)

// Notification is an in-app message for a user. SourceID points at the thread
// the event happened on.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	SourceID  uint      `gorm:"index" json:"source_id"`
	Message   string    `gorm:"size:255;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
