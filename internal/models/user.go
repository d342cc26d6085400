package models

import "time"

// AnonymousUsername is reserved and can never be registered.
const AnonymousUsername = "anonymous"

// User is a forum member. LikedPosts and LikedComments are the like memberships;
// post and comment counters are derived from them.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"size:30;uniqueIndex;not null" json:"userName"`
	Email            string    `gorm:"size:254;uniqueIndex;not null" json:"-"`
	Password         string    `gorm:"not null" json:"-"`
	IsAdmin          bool      `gorm:"not null;default:false" json:"-"`
	TwoFactorEnabled bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	ProfilePicture   []byte    `json:"-"`
	Posts            []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
	Comments         []Comment `gorm:"foreignKey:UserID" json:"comments,omitempty"`
	LikedPosts       []Post    `gorm:"many2many:post_likes;constraint:OnDelete:CASCADE" json:"likedPosts,omitempty"`
	LikedComments    []Comment `gorm:"many2many:comment_likes;constraint:OnDelete:CASCADE" json:"likedComments,omitempty"`
}

// Account is a user as shown to that user or to an admin. Public payloads
// embed plain User, which never carries the email or admin flag.
type Account struct {
	*User
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// NewAccount wraps u; a nil user gives a nil account.
func NewAccount(u *User) *Account {
	if u == nil {
		return nil
	}
	return &Account{User: u, Email: u.Email, IsAdmin: u.IsAdmin}
}

// HasProfilePicture reports whether a picture was uploaded.
func (u *User) HasProfilePicture() bool {
	return len(u.ProfilePicture) > 0
}
