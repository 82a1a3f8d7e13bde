package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/media"
	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User) error
	updateFn            func(context.Context, *models.User) error
	deleteFn            func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User) error {
	return s.createWithProfileFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:     func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn:            func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:            func(_ context.Context, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn func(context.Context, uint) (*models.Profile, error)
	updateFn      func(context.Context, *models.Profile) error
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, _ uint) (*models.Profile, error) { return &models.Profile{}, nil },
		updateFn:      func(_ context.Context, _ *models.Profile) error { return nil },
	}
}

// recordingMailer captures outbound verification codes.
type recordingMailer struct {
	to    []string
	codes []string
	err   error
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, to, code string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.codes = append(m.codes, code)
	return nil
}

func knownUserRepo(user *models.User) *userRepoStub {
	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == user.Email {
			return user, nil
		}
		return nil, nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == user.ID {
			return user, nil
		}
		return nil, models.NewNotFoundError("User", id)
	}
	return repo
}

func assertCodeMismatch(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeCodeMismatch, appErr.Code)
}

func testAccountService(userRepo *userRepoStub, profileRepo *profileRepoStub, mailer *recordingMailer, t *testing.T) *AccountService {
	t.Helper()
	store := media.NewStore(&config.Config{MediaDir: t.TempDir()})
	return NewAccountService(userRepo, profileRepo, mailer, store)
}

func TestAccountService_RequestReset(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: 1, Email: "maria@example.com"}
	profile := &models.Profile{ID: 1, UserID: 1, Picture: models.DefaultPicture}
	profileRepo := noopProfileRepo()
	profileRepo.getByUserIDFn = func(_ context.Context, _ uint) (*models.Profile, error) { return profile, nil }
	mailer := &recordingMailer{}

	svc := testAccountService(knownUserRepo(user), profileRepo, mailer, t)
	require.NoError(t, svc.RequestReset(context.Background(), "maria@example.com"))

	require.Len(t, mailer.codes, 1)
	assert.Equal(t, "maria@example.com", mailer.to[0])
	assert.Equal(t, profile.VerificationCode, mailer.codes[0])
	assert.Len(t, profile.VerificationCode, 4)
	assert.GreaterOrEqual(t, profile.VerificationCode, "1000")
	assert.NotNil(t, profile.CodeIssuedAt)
}

func TestAccountService_RequestReset_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := testAccountService(noopUserRepo(), noopProfileRepo(), &recordingMailer{}, t)
	err := svc.RequestReset(context.Background(), "nobody@example.com")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUserNotFound, appErr.Code)
}

func TestAccountService_RequestReset_OverwritesPriorCode(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: 1, Email: "maria@example.com"}
	issued := time.Now().Add(-time.Minute)
	profile := &models.Profile{ID: 1, UserID: 1, VerificationCode: "1234", CodeIssuedAt: &issued}
	profileRepo := noopProfileRepo()
	profileRepo.getByUserIDFn = func(_ context.Context, _ uint) (*models.Profile, error) { return profile, nil }
	mailer := &recordingMailer{}

	svc := testAccountService(knownUserRepo(user), profileRepo, mailer, t)
	require.NoError(t, svc.RequestReset(context.Background(), "maria@example.com"))

	// The stored code always tracks the latest email.
	assert.Equal(t, profile.VerificationCode, mailer.codes[0])
}

func TestAccountService_VerifyCode(t *testing.T) {
	t.Parallel()

	newFixture := func(code string, issuedAgo time.Duration) (*AccountService, *models.Profile) {
		user := &models.User{ID: 1, Email: "maria@example.com"}
		issued := time.Now().Add(-issuedAgo)
		profile := &models.Profile{ID: 1, UserID: 1, VerificationCode: code, CodeIssuedAt: &issued}
		profileRepo := noopProfileRepo()
		profileRepo.getByUserIDFn = func(_ context.Context, _ uint) (*models.Profile, error) { return profile, nil }
		return testAccountService(knownUserRepo(user), profileRepo, &recordingMailer{}, t), profile
	}

	t.Run("match rotates the code", func(t *testing.T) {
		t.Parallel()
		svc, profile := newFixture("4321", time.Minute)
		require.NoError(t, svc.VerifyCode(context.Background(), "maria@example.com", "4321"))
		assert.NotEqual(t, "4321", profile.VerificationCode)
		assert.Len(t, profile.VerificationCode, 4)
	})

	t.Run("used code cannot be replayed", func(t *testing.T) {
		t.Parallel()
		svc, _ := newFixture("4321", time.Minute)
		ctx := context.Background()
		require.NoError(t, svc.VerifyCode(ctx, "maria@example.com", "4321"))
		assertCodeMismatch(t, svc.VerifyCode(ctx, "maria@example.com", "4321"))
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()
		svc, _ := newFixture("4321", time.Minute)
		assertCodeMismatch(t, svc.VerifyCode(context.Background(), "maria@example.com", "9999"))
	})

	t.Run("expired code", func(t *testing.T) {
		t.Parallel()
		svc, _ := newFixture("4321", CodeTTL+time.Minute)
		assertCodeMismatch(t, svc.VerifyCode(context.Background(), "maria@example.com", "4321"))
	})

	t.Run("no code issued", func(t *testing.T) {
		t.Parallel()
		svc, _ := newFixture("", time.Minute)
		assertCodeMismatch(t, svc.VerifyCode(context.Background(), "maria@example.com", ""))
	})
}

func TestAccountService_ResetPassword(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: 1, Email: "maria@example.com", Password: "old-hash"}
	userRepo := knownUserRepo(user)
	var saved *models.User
	userRepo.updateFn = func(_ context.Context, u *models.User) error {
		saved = u
		return nil
	}

	svc := testAccountService(userRepo, noopProfileRepo(), &recordingMailer{}, t)
	ctx := context.Background()

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "maria@example.com", "NewSecret1", "Different1")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodePasswordMismatch, appErr.Code)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "maria@example.com", "short", "short")
		assertValidationError(t, err)
	})

	t.Run("stores bcrypt hash", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, "maria@example.com", "NewSecret1", "NewSecret1"))
		require.NotNil(t, saved)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("NewSecret1")))
	})
}

func TestAccountService_ChangePassword(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("OldSecret1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{ID: 1, Email: "maria@example.com", Password: string(hash)}
	userRepo := knownUserRepo(user)

	svc := testAccountService(userRepo, noopProfileRepo(), &recordingMailer{}, t)
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, 1, "WrongSecret1", "NewSecret1", "NewSecret1")
		assertUnauthorizedError(t, err)
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := svc.ChangePassword(ctx, 1, "OldSecret1", "NewSecret1", "Other1111")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodePasswordMismatch, appErr.Code)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, 1, "OldSecret1", "NewSecret1", "NewSecret1"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("NewSecret1")))
	})
}

func TestAccountService_UpdatePicture(t *testing.T) {
	t.Parallel()

	pngData := func() []byte {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
		return buf.Bytes()
	}()

	profile := &models.Profile{ID: 1, UserID: 1, Picture: models.DefaultPicture}
	profileRepo := noopProfileRepo()
	profileRepo.getByUserIDFn = func(_ context.Context, _ uint) (*models.Profile, error) { return profile, nil }

	svc := testAccountService(noopUserRepo(), profileRepo, &recordingMailer{}, t)
	ctx := context.Background()

	updated, err := svc.UpdatePicture(ctx, 1, pngData)
	require.NoError(t, err)
	assert.NotEqual(t, models.DefaultPicture, updated.Picture)
	assert.True(t, updated.HasCustomPicture())

	// Replacing again swaps the stored file.
	first := updated.Picture
	updated, err = svc.UpdatePicture(ctx, 1, pngData)
	require.NoError(t, err)
	assert.NotEqual(t, first, updated.Picture)
}

func TestAccountService_UpdatePicture_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc := testAccountService(noopUserRepo(), noopProfileRepo(), &recordingMailer{}, t)
	_, err := svc.UpdatePicture(context.Background(), 1, []byte("not an image"))
	assertValidationError(t, err)
}

func TestAccountService_RequestReset_MailFailureSurfaces(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: 1, Email: "maria@example.com"}
	mailer := &recordingMailer{err: errors.New("smtp down")}

	svc := testAccountService(knownUserRepo(user), noopProfileRepo(), mailer, t)
	err := svc.RequestReset(context.Background(), "maria@example.com")

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeInternal, appErr.Code)
}
