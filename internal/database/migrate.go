package database

import "sort"

// Migration is a versioned SQL change applied after AutoMigrate. Scripts must
// run on both postgres and sqlite.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

var migrations = []Migration{
	{
		Version:    1,
		Name:       "comments_thread_index",
		UpScript:   "CREATE INDEX IF NOT EXISTS idx_comments_post_parent ON comments (post_id, parent_id)",
		DownScript: "DROP INDEX IF EXISTS idx_comments_post_parent",
	},
	{
		Version:    2,
		Name:       "post_likes_post_index",
		UpScript:   "CREATE INDEX IF NOT EXISTS idx_post_likes_post_id ON post_likes (post_id)",
		DownScript: "DROP INDEX IF EXISTS idx_post_likes_post_id",
	},
	{
		Version:    3,
		Name:       "comment_likes_comment_index",
		UpScript:   "CREATE INDEX IF NOT EXISTS idx_comment_likes_comment_id ON comment_likes (comment_id)",
		DownScript: "DROP INDEX IF EXISTS idx_comment_likes_comment_id",
	},
	{
		Version:    4,
		Name:       "post_tags_tag_index",
		UpScript:   "CREATE INDEX IF NOT EXISTS idx_post_tags_tag_id ON post_tags (tag_id)",
		DownScript: "DROP INDEX IF EXISTS idx_post_tags_tag_id",
	},
}

// GetMigrations returns the registered migrations ordered by version.
func GetMigrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// GetMigrationByVersion returns the migration with the given version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}
