package seed

import (
	"testing"

	"quill/internal/database"
	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func TestFactory_CreateUser(t *testing.T) {
	db := setupSeedDB(t)
	f := NewFactory(db)

	user, err := f.CreateUser("testwriter")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, models.DefaultPicture, profile.Picture)
}

func TestFactory_UniqueSlugs(t *testing.T) {
	db := setupSeedDB(t)
	f := NewFactory(db)

	assert.Equal(t, "same-title", f.uniqueSlug("Same Title"))
	assert.Equal(t, "same-title-2", f.uniqueSlug("Same Title"))
	assert.Equal(t, "same-title-3", f.uniqueSlug("Same Title"))
}

func TestRun(t *testing.T) {
	db := setupSeedDB(t)

	opts := Options{
		NumUsers:        3,
		PostsPerUser:    2,
		DraftRatio:      0.5,
		CommentsPerPost: 2,
	}
	require.NoError(t, Run(db, opts))

	var userCount, profileCount, postCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Profile{}).Count(&profileCount)
	db.Model(&models.Post{}).Count(&postCount)
	assert.Equal(t, int64(3), userCount)
	assert.Equal(t, int64(3), profileCount)
	assert.Equal(t, int64(6), postCount)

	// Comments only ever hang off published posts.
	var orphaned int64
	db.Model(&models.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.status != ?", models.StatusPublished).
		Count(&orphaned)
	assert.Equal(t, int64(0), orphaned)
}

func TestClean(t *testing.T) {
	db := setupSeedDB(t)
	require.NoError(t, Run(db, Options{NumUsers: 2, PostsPerUser: 1, CommentsPerPost: 1}))
	require.NoError(t, Clean(db))

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	assert.Equal(t, int64(0), userCount)
}
