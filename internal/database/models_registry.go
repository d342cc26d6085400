package database

import "forum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// The post_tags, post_likes and comment_likes join tables come from their
// many2many tags.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
	}
}
