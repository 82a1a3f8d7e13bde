package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"quill/internal/mail"
	"quill/internal/media"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// CodeTTL is how long a recovery verification code stays valid.
const CodeTTL = 15 * time.Minute

// AccountService handles password recovery, password change and profile
// picture management.
type AccountService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	mailer      mail.Mailer
	store       *media.Store
	now         func() time.Time
}

func NewAccountService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	mailer mail.Mailer,
	store *media.Store,
) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		mailer:      mailer,
		store:       store,
		now:         time.Now,
	}
}

// generateCode returns a uniform random four digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}

func (s *AccountService) lookupByEmail(ctx context.Context, email string) (*models.User, *models.Profile, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewUserNotFoundError(email)
	}
	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// RequestReset issues a fresh verification code for the account and emails
// it. Any previously issued code is overwritten.
func (s *AccountService) RequestReset(ctx context.Context, email string) error {
	user, profile, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return models.NewInternalError(err)
	}

	issued := s.now()
	profile.VerificationCode = code
	profile.CodeIssuedAt = &issued
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		return models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "Recovery code issued", "user_id", user.ID)
	return nil
}

// VerifyCode checks a submitted recovery code. A matching code is rotated so
// it cannot be replayed; expired codes are treated as mismatches.
func (s *AccountService) VerifyCode(ctx context.Context, email, code string) error {
	_, profile, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	if profile.VerificationCode == "" || profile.VerificationCode != code {
		return models.NewCodeMismatchError()
	}
	if profile.CodeIssuedAt == nil || s.now().Sub(*profile.CodeIssuedAt) > CodeTTL {
		return models.NewCodeMismatchError()
	}

	rotated, err := generateCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	issued := s.now()
	profile.VerificationCode = rotated
	profile.CodeIssuedAt = &issued
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "Recovery code verified", "user_id", profile.UserID)
	return nil
}

// ResetPassword stores a new password for the account.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword, confirm string) error {
	user, _, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	if newPassword != confirm {
		return models.NewPasswordMismatchError()
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "Password reset", "user_id", user.ID)
	return nil
}

// ChangePassword updates the password of a logged in user after verifying
// the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword, confirm string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if newPassword != confirm {
		return models.NewPasswordMismatchError()
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// GetProfile returns the user's profile.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdatePicture validates and stores a new profile picture. The previous
// picture is deleted only after the new one is committed, so a failed upload
// never leaves the profile without an image.
func (s *AccountService) UpdatePicture(ctx context.Context, userID uint, content []byte) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	filename, err := s.store.Save(ctx, content)
	if err != nil {
		return nil, err
	}

	previous := profile.Picture
	profile.Picture = filename
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		// Roll back the orphaned file.
		_ = s.store.Delete(ctx, filename)
		return nil, err
	}

	if previous != filename {
		_ = s.store.Delete(ctx, previous)
	}

	middleware.Logger.InfoContext(ctx, "Profile picture updated", "user_id", userID, "picture", filename)
	return profile, nil
}
