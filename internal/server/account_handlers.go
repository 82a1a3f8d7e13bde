package server

import (
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequestPasswordReset handles POST /email_form/
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	if err := s.accountService.RequestReset(c.Context(), req.Email); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Verification code sent",
	})
}

// VerifyCode handles POST /verification_code/:email/
func (s *Server) VerifyCode(c *fiber.Ctx) error {
	email, err := paramEmail(c)
	if err != nil {
		return nil
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.VerifyCode(c.Context(), email, req.Code); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Code verified",
	})
}

// ResetPassword handles POST /reset_password/:email/
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	email, err := paramEmail(c)
	if err != nil {
		return nil
	}

	var req struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.ResetPassword(c.Context(), email, req.NewPassword, req.ConfirmPassword); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Password reset",
	})
}

// ChangePassword handles POST /change_password/
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.ChangePassword(c.Context(), userID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Password changed",
	})
}
