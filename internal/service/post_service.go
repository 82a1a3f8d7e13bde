// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	UserID           uint
	Title            string
	ShortDescription string
	Content          string
	AsDraft          bool
}

type UpdatePostInput struct {
	UserID           uint
	Slug             string
	Title            string
	ShortDescription string
	Content          string
	AsDraft          bool
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) validateFields(title, shortDescription, content string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > validation.MaxTitleLen {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", validation.MaxTitleLen))
	}
	if len(shortDescription) > validation.MaxShortDescriptionLen {
		return models.NewValidationError(fmt.Sprintf("Short description too long (max %d characters)", validation.MaxShortDescriptionLen))
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

// uniqueSlug derives a slug from the title, appending a numeric suffix when
// the base form is already taken.
func (s *PostService) uniqueSlug(ctx context.Context, title, currentSlug string) (string, error) {
	base := validation.Slugify(title)
	if base == "" {
		return "", models.NewValidationError("Title must contain letters or numbers")
	}

	candidate := base
	for i := 2; ; i++ {
		if candidate == currentSlug {
			return candidate, nil
		}
		taken, err := s.postRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := s.validateFields(in.Title, in.ShortDescription, in.Content); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, in.Title, "")
	if err != nil {
		return nil, err
	}

	status := models.StatusPublished
	if in.AsDraft {
		status = models.StatusDraft
	}

	post := &models.Post{
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		Content:          in.Content,
		Slug:             slug,
		Status:           status,
		UserID:           in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostTransitions.WithLabelValues("create").Inc()
	middleware.Logger.InfoContext(ctx, "Post created", "slug", post.Slug, "status", post.Status, "author_id", in.UserID)
	return post, nil
}

// GetPost returns a post visible to the viewer. Drafts are only visible to
// their author; to everyone else a draft does not exist.
func (s *PostService) GetPost(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() && post.UserID != viewerID {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

// getOwned loads a post and checks the caller is its author. A post owned by
// someone else reads as missing, so the response never leaks its existence.
func (s *PostService) getOwned(ctx context.Context, slug string, userID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewNotFoundError("Post", slug)
	}
	return post, nil
}

// GetPostForEdit returns the caller's post regardless of its status.
func (s *PostService) GetPostForEdit(ctx context.Context, slug string, userID uint) (*models.Post, error) {
	return s.getOwned(ctx, slug, userID)
}

// UpdatePost edits an owned post. The slug is recomputed from the new title;
// the existing slug is kept when the title still resolves to it.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := s.validateFields(in.Title, in.ShortDescription, in.Content); err != nil {
		return nil, err
	}

	post, err := s.getOwned(ctx, in.Slug, in.UserID)
	if err != nil {
		return nil, err
	}

	oldSlug := post.Slug
	slug := post.Slug
	if validation.Slugify(in.Title) != slugBase(post.Slug) {
		slug, err = s.uniqueSlug(ctx, in.Title, post.Slug)
		if err != nil {
			return nil, err
		}
	}

	post.Title = in.Title
	post.ShortDescription = in.ShortDescription
	post.Content = in.Content
	post.Slug = slug
	if in.AsDraft {
		post.Status = models.StatusDraft
	} else {
		post.Status = models.StatusPublished
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Post updated", "slug", post.Slug, "old_slug", oldSlug, "status", post.Status)
	return post, nil
}

// slugBase strips a trailing numeric disambiguation suffix.
func slugBase(slug string) string {
	i := strings.LastIndex(slug, "-")
	if i <= 0 {
		return slug
	}
	for _, r := range slug[i+1:] {
		if r < '0' || r > '9' {
			return slug
		}
	}
	if slug[i+1:] == "" {
		return slug
	}
	return slug[:i]
}

// PublishPost moves a draft to published. Publishing an already published
// post is a no-op.
func (s *PostService) PublishPost(ctx context.Context, slug string, userID uint) (*models.Post, error) {
	post, err := s.getOwned(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if post.Published() {
		return post, nil
	}

	post.Status = models.StatusPublished
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostTransitions.WithLabelValues("publish").Inc()
	middleware.Logger.InfoContext(ctx, "Post published", "slug", post.Slug, "author_id", userID)
	return post, nil
}

// DeletePost removes an owned post and all of its comments.
func (s *PostService) DeletePost(ctx context.Context, slug string, userID uint) error {
	post, err := s.getOwned(ctx, slug, userID)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post); err != nil {
		return err
	}

	middleware.PostTransitions.WithLabelValues("delete").Inc()
	middleware.Logger.InfoContext(ctx, "Post deleted", "slug", slug, "author_id", userID)
	return nil
}

// ListHome returns the published feed, newest first.
func (s *PostService) ListHome(ctx context.Context) ([]models.Post, error) {
	return s.postRepo.ListPublished(ctx)
}

// ListMine returns the author's posts partitioned by status, newest first
// within each group.
func (s *PostService) ListMine(ctx context.Context, userID uint) (drafts, published []models.Post, err error) {
	posts, err := s.postRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	drafts = []models.Post{}
	published = []models.Post{}
	for _, p := range posts {
		if p.Published() {
			published = append(published, p)
		} else {
			drafts = append(drafts, p)
		}
	}
	return drafts, published, nil
}

// Search matches published posts by title or author username. An empty query
// matches nothing.
func (s *PostService) Search(ctx context.Context, query string) ([]models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Post{}, nil
	}
	return s.postRepo.Search(ctx, strings.TrimSpace(query))
}
