package repository

import (
	"context"
	"errors"
	"strings"

	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
)

// commentsCountSelect annotates each post row with its live comment count.
const commentsCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count"

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPublished(ctx context.Context) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Post, error)
	Search(ctx context.Context, query string) ([]models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post and all of its comments in one transaction.
	Delete(ctx context.Context, post *models.Post) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A post with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post

	err := cache.Aside(ctx, cache.PostKey(slug), &post, cache.PostTTL, func() error {
		err := r.db.WithContext(ctx).
			Select(commentsCountSelect).
			Preload("User").
			Where("slug = ?", slug).
			First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", slug)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPublished(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post

	err := cache.Aside(ctx, cache.FeedKey, &posts, cache.FeedTTL, func() error {
		return r.db.WithContext(ctx).
			Select(commentsCountSelect).
			Preload("User").
			Where("status = ?", models.StatusPublished).
			Order("created_at DESC").
			Find(&posts).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Select(commentsCountSelect).
		Preload("User").
		Where("user_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// likeEscaper neutralizes LIKE metacharacters so user queries match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches published posts whose title or author username contains the
// query, case-insensitively. LOWER(...) LIKE keeps the query portable across
// PostgreSQL and the SQLite driver used in tests.
func (r *postRepository) Search(ctx context.Context, query string) ([]models.Post, error) {
	like := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Select(commentsCountSelect).
		Joins("JOIN users ON users.id = posts.user_id AND users.deleted_at IS NULL").
		Preload("User").
		Where("posts.status = ?", models.StatusPublished).
		Where(`LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(users.username) LIKE ? ESCAPE '\'`, like, like).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// SlugExists checks soft-deleted rows too, since the unique index on slug
// still holds their values.
func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Post{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	// A title edit can rename the slug; the cache entry under the old slug
	// must go too or it keeps serving the renamed post.
	var prev models.Post
	if err := r.db.WithContext(ctx).Select("slug").First(&prev, post.ID).Error; err == nil && prev.Slug != post.Slug {
		cache.InvalidatePost(ctx, prev.Slug)
	}

	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.Slug)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.Slug)
	return nil
}
