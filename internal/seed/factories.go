// Package seed provides helpers to create fixture and demo data for the
// forum database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"forum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated demo user.
const DemoPassword = "Password123!"

// FactoryOptions tune generated content.
type FactoryOptions struct {
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	// HashCost lowers the bcrypt cost for fast local seeding.
	HashCost int
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  FactoryOptions
	rnd   *rand.Rand
	faker *gofakeit.Faker

	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:    db,
		opts:  opts,
		rnd:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), f.opts.HashCost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rnd.Intn(f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back).Truncate(time.Second)
}

// username returns a lowercase name that passes account validation.
func (f *Factory) username() string {
	base := strings.ToLower(f.faker.FirstName())
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, base)
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s_%d", base, f.faker.Number(100, 99999))
}

// CreateUser constructs and persists a demo user whose password is DemoPassword.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	name := f.username()
	user := &models.User{
		Username:  name,
		Email:     name + "@" + strings.ToLower(f.faker.DomainName()),
		Password:  hash,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author in category with up to three of tags,
// without persisting it.
func (f *Factory) BuildPost(author *models.User, category *models.Category, tags []models.Tag) *models.Post {
	created := f.pastTime()
	post := &models.Post{
		Title:      strings.TrimSuffix(f.faker.Sentence(f.rnd.Intn(6)+3), "."),
		Content:    f.faker.Paragraph(f.rnd.Intn(3)+1, 3, 12, "\n\n"),
		CreatedAt:  created,
		EditedAt:   created,
		UserID:     author.ID,
		CategoryID: category.ID,
	}
	if len(tags) > 0 {
		picked := f.rnd.Perm(len(tags))
		for _, i := range picked[:f.rnd.Intn(min(3, len(tags)))+1] {
			post.Tags = append(post.Tags, tags[i])
		}
	}
	return post
}

// CreatePostsBatch persists posts together with their tag links.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment by author on post. A non-nil parent makes
// it a reply in parent's thread.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.rnd.Intn(72*60)+1) * time.Minute)
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.rnd.Intn(14) + 4),
		CreatedAt: created,
		EditedAt:  created,
		PostID:    post.ID,
		UserID:    author.ID,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Intn exposes the factory's random source to presets.
func (f *Factory) Intn(n int) int {
	return f.rnd.Intn(n)
}
