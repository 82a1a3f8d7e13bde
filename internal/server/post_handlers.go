package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
	Content          string `json:"content"`
	AsDraft          bool   `json:"as_draft"`
}

// Home handles GET / and returns the published feed, newest first.
func (s *Server) Home(c *fiber.Ctx) error {
	posts, err := s.postService.ListHome(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts": posts,
	})
}

// CreatePost handles POST /blog/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:           userID,
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Content:          req.Content,
		AsDraft:          req.AsDraft,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /blog/:slug/ and includes the post's comments.
func (s *Server) GetPost(c *fiber.Ctx) error {
	slug, err := paramSlug(c)
	if err != nil {
		return nil
	}

	viewerID := currentUserID(c)
	post, err := s.postService.GetPost(c.Context(), slug, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	comments, err := s.commentService.ListForPost(c.Context(), slug, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// MyPosts handles GET /my_blog/ and returns the author's posts grouped by
// status, drafts included.
func (s *Server) MyPosts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	drafts, published, err := s.postService.ListMine(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"drafts":    drafts,
		"published": published,
	})
}

// GetPostForEdit handles GET /edit_blog/:slug/
func (s *Server) GetPostForEdit(c *fiber.Ctx) error {
	slug, err := paramSlug(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPostForEdit(c.Context(), slug, c.Locals("userID").(uint))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles POST /edit_blog/:slug/
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	slug, err := paramSlug(c)
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:           c.Locals("userID").(uint),
		Slug:             slug,
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Content:          req.Content,
		AsDraft:          req.AsDraft,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles POST /delete_blog/:slug/
func (s *Server) DeletePost(c *fiber.Ctx) error {
	slug, err := paramSlug(c)
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), slug, c.Locals("userID").(uint)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}

// PublishPost handles POST /publish/:slug/
func (s *Server) PublishPost(c *fiber.Ctx) error {
	slug, err := paramSlug(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.PublishPost(c.Context(), slug, c.Locals("userID").(uint))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// SearchPosts handles GET /search/?search_query=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := c.Query("search_query")

	posts, err := s.postService.Search(c.Context(), query)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"query": query,
		"posts": posts,
	})
}
