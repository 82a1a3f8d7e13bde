package server

import (
	"io"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /user_profile/
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	profile, err := s.accountService.GetProfile(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
	})
}

// UpdateProfilePicture handles POST /user_profile/ with a multipart upload.
func (s *Server) UpdateProfilePicture(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	file, err := c.FormFile("picture")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	profile, err := s.accountService.UpdatePicture(c.Context(), userID, content)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}
