package models

import "time"

// Comment is a reply to a post or, when ParentID is set, to another comment.
// Threads are one level deep. An empty Content marks a tombstone.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null;default:''" json:"content"`
	TotalLikes int       `gorm:"not null;default:0" json:"totalLikes"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	EditedAt   time.Time `gorm:"not null" json:"editedAt"`
	PostID     uint      `gorm:"not null;index" json:"postId"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	ParentID   *uint     `gorm:"index" json:"parentId,omitempty"`
	Replies    []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// IsTombstone reports whether the comment was logically deleted.
func (c *Comment) IsTombstone() bool {
	return c.Content == ""
}
