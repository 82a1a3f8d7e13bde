package service

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/cache"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type AddCommentInput struct {
	UserID  uint
	Slug    string
	Content string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// AddComment attaches a comment to a post the caller can see.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(in.Content) > validation.MaxCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", validation.MaxCommentLen))
	}

	post, err := s.postRepo.GetBySlug(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() && post.UserID != in.UserID {
		return nil, models.NewNotFoundError("Post", in.Slug)
	}

	comment := &models.Comment{
		Content: in.Content,
		UserID:  in.UserID,
		PostID:  post.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Comment added", "slug", in.Slug, "comment_id", comment.ID)
	return comment, nil
}

// ListForPost returns a visible post's comments oldest first.
func (s *CommentService) ListForPost(ctx context.Context, slug string, viewerID uint) ([]models.Comment, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published() && post.UserID != viewerID {
		return nil, models.NewNotFoundError("Post", slug)
	}

	var comments []models.Comment
	err = cache.Aside(ctx, cache.CommentsKey(slug), &comments, cache.CommentsTTL, func() error {
		var fetchErr error
		comments, fetchErr = s.commentRepo.ListForPost(ctx, post.ID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}
