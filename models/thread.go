package models

import "time"

// Thread is a top-level forum post. Deleting a thread cascades to its replies
// and to all reactions on the thread and those replies.
//
// BestReplyID is a weak reference into the thread's own replies; it carries no
// foreign key so that clearing it stays an application concern.
type Thread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	CategoryID  uint      `gorm:"index;not null" json:"category_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsPinned    bool      `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked    bool      `gorm:"not null;default:false" json:"is_locked"`
	BestReplyID *uint     `json:"best_reply_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category    Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Replies     []Reply   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
