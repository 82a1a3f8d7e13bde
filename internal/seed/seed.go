// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	// DraftRatio is the fraction of posts left as drafts, 0..1.
	DraftRatio float64
	// CommentsPerPost is the upper bound of random comments per published post.
	CommentsPerPost int
	ShouldClean     bool
}

// DefaultOptions returns a small but realistic data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:        10,
		PostsPerUser:    5,
		DraftRatio:      0.3,
		CommentsPerPost: 4,
		ShouldClean:     false,
	}
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	rng   *rand.Rand
	slugs map[string]int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:    db,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		slugs: make(map[string]int),
	}
}

// CreateUser persists a user with a profile and the shared dev password.
func (f *Factory) CreateUser(username string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hashing seed password: %w", err)
	}

	user := &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		Password:  string(hash),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{
			UserID:  user.ID,
			Picture: models.DefaultPicture,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating seed user %q: %w", username, err)
	}
	return user, nil
}

// uniqueSlug disambiguates repeated fake titles the same way the app does.
func (f *Factory) uniqueSlug(title string) string {
	base := validation.Slugify(title)
	if base == "" {
		base = gofakeit.UUID()[:8]
	}
	f.slugs[base]++
	if n := f.slugs[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// CreatePost persists a post for the user with a realistic created_at spread.
func (f *Factory) CreatePost(user *models.User, asDraft bool) (*models.Post, error) {
	title := strings.TrimSuffix(gofakeit.Sentence(4), ".")
	status := models.StatusPublished
	if asDraft {
		status = models.StatusDraft
	}

	post := &models.Post{
		Title:            title,
		ShortDescription: gofakeit.Sentence(8),
		Content:          gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Slug:             f.uniqueSlug(title),
		Status:           status,
		UserID:           user.ID,
		CreatedAt:        time.Now().Add(-time.Duration(f.rng.Intn(90*24)) * time.Hour),
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("creating seed post %q: %w", post.Slug, err)
	}
	return post, nil
}

// CreateComment attaches a fake comment by the user to the post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content:   gofakeit.Sentence(10),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(72)) * time.Hour),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("creating seed comment: %w", err)
	}
	return comment, nil
}

// Run populates the database per the given options.
func Run(db *gorm.DB, opts Options) error {
	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return err
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		user, err := f.CreateUser(username)
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	var published []*models.Post
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			asDraft := f.rng.Float64() < opts.DraftRatio
			post, err := f.CreatePost(user, asDraft)
			if err != nil {
				return err
			}
			if post.Published() {
				published = append(published, post)
			}
		}
	}

	for _, post := range published {
		for i := 0; i < f.rng.Intn(opts.CommentsPerPost+1); i++ {
			commenter := users[f.rng.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return err
			}
		}
	}

	log.Printf("seeded %d users, %d posts (%d published)",
		len(users), len(users)*opts.PostsPerUser, len(published))
	return nil
}

// Clean removes all seeded rows. Order matters for foreign keys.
func Clean(db *gorm.DB) error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Profile{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("cleaning seed data: %w", err)
		}
	}
	return nil
}
