package server

import (
	"errors"
	"net/url"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondServiceError translates an error from the service or repository
// layer into the matching HTTP status. Unknown errors become 500s.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	switch appErr.Code {
	case models.CodeValidation, models.CodeCodeMismatch, models.CodePasswordMismatch:
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.CodeNotFound, models.CodeUserNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.CodeUnauthorized:
		// Credential failures (e.g. wrong current password); the handlers
		// behind AuthRequired already have a verified identity.
		return models.RespondWithError(c, fiber.StatusForbidden, err)
	case models.CodeConflict:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
}

// currentUserID returns the authenticated user's ID from locals, or 0 for
// anonymous requests on routes using OptionalAuth.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// paramSlug returns the slug route parameter.
func paramSlug(c *fiber.Ctx) (string, error) {
	slug := c.Params("slug")
	if slug == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid slug"))
		return "", errResponseWritten
	}
	return slug, nil
}

// paramEmail returns the URL-decoded email route parameter.
func paramEmail(c *fiber.Ctx) (string, error) {
	email := c.Params("email")
	if decoded, err := url.PathUnescape(email); err == nil {
		email = decoded
	}
	if email == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid email"))
		return "", errResponseWritten
	}
	return email, nil
}

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")
