package models

// Category groups posts. PicturePath points at an uploaded file or an external URL.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:30;not null;uniqueIndex" json:"name"`
	Color       string `gorm:"size:7;not null;default:'#6c757d'" json:"color"`
	PicturePath string `gorm:"size:512" json:"picturePath,omitempty"`
}

// Tag labels posts through the post_tags join table.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:30;not null;uniqueIndex" json:"name"`
	Posts []Post `gorm:"many2many:post_tags;" json:"-"`
}
