// Package models contains data structures for the forum's domain models.
package models

import (
	"time"
)

// Post represents a forum post.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
	EditedAt   time.Time `gorm:"not null" json:"editedAt"`
	TotalLikes int       `gorm:"not null;default:0" json:"totalLikes"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CategoryID uint      `gorm:"not null;index" json:"categoryId"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags       []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Comments   []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// TagIDs returns the ids of the post's currently loaded tags.
func (p *Post) TagIDs() []uint {
	ids := make([]uint, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// CommentCount counts loaded comments, tombstones included.
func (p *Post) CommentCount() int {
	return len(p.Comments)
}
