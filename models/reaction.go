package models

import "time"

// ReactionLike is the default reaction kind.
const ReactionLike = "like"

// ThreadReaction records one user's reaction on a thread. The composite unique
// index is the at-most-once guarantee the toggle relies on: concurrent toggles
// race on the constraint, never on an application-level check.
type ThreadReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uq_thread_reaction" json:"user_id"`
	ThreadID  uint      `gorm:"not null;uniqueIndex:uq_thread_reaction" json:"thread_id"`
	Kind      string    `gorm:"size:16;not null;default:'like'" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Thread    Thread    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// ReplyReaction records one user's reaction on a reply.
type ReplyReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uq_reply_reaction" json:"user_id"`
	ReplyID   uint      `gorm:"not null;uniqueIndex:uq_reply_reaction" json:"reply_id"`
	Kind      string    `gorm:"size:16;not null;default:'like'" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Reply     Reply     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
