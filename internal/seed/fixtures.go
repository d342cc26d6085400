package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"forum/internal/models"
	"forum/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// CategoryFixture is a category row in a fixtures file.
type CategoryFixture struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// UserFixture is an account in a fixtures file.
type UserFixture struct {
	UserName string `yaml:"userName"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

// Fixtures is the document read from a fixtures YAML file.
type Fixtures struct {
	Categories []CategoryFixture `yaml:"categories"`
	Tags       []string          `yaml:"tags"`
	Users      []UserFixture     `yaml:"users"`
}

// DefaultFixtures returns the fixtures shipped with the binary.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// LoadFixtures reads fixtures from path.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures decodes and validates a fixtures document.
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	for i := range f.Categories {
		c := &f.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Color == "" {
			c.Color = "#6c757d"
		}
		if err := validation.ValidateEntityName(c.Name); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if err := validation.ValidateColor(c.Color); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
	}
	for i, name := range f.Tags {
		f.Tags[i] = strings.TrimSpace(name)
		if err := validation.ValidateEntityName(f.Tags[i]); err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
	}
	for i := range f.Users {
		u := &f.Users[i]
		u.UserName = validation.NormalizeUsername(u.UserName)
		if err := validation.ValidateUsername(u.UserName); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.UserName, err)
		}
		if err := validation.ValidatePassword(u.Password); err != nil {
			return nil, fmt.Errorf("user %q: %w", u.UserName, err)
		}
	}
	return &f, nil
}

// ApplyFixtures upserts the fixture catalog and accounts. Existing users keep
// their password; only the admin bit is brought in line.
func ApplyFixtures(ctx context.Context, db *gorm.DB, f *Fixtures) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range f.Categories {
			category := models.Category{Name: c.Name, Color: c.Color}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"color"}),
			}).Create(&category).Error; err != nil {
				return fmt.Errorf("category %q: %w", c.Name, err)
			}
		}

		for _, name := range f.Tags {
			tag := models.Tag{Name: name}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
				return fmt.Errorf("tag %q: %w", name, err)
			}
		}

		for _, u := range f.Users {
			var existing models.User
			err := tx.Where("username = ?", u.UserName).Limit(1).Find(&existing).Error
			if err != nil {
				return err
			}
			if existing.ID != 0 {
				if err := tx.Model(&existing).Update("is_admin", u.Admin).Error; err != nil {
					return err
				}
				continue
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password for %q: %w", u.UserName, err)
			}
			user := models.User{
				Username: u.UserName,
				Email:    u.Email,
				Password: string(hash),
				IsAdmin:  u.Admin,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("user %q: %w", u.UserName, err)
			}
		}
		return nil
	})
}
