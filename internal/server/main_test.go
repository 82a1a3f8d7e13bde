package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/mail"
	"quill/internal/media"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
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

// newTestServer wires a Server onto an in-memory DB without Redis or SMTP.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	db := setupHandlerTestDB(t)

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Env:       "test",
		MediaDir:  t.TempDir(),
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	store := media.NewStore(cfg)

	s := &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		mediaStore:  store,
	}
	s.postService = service.NewPostService(postRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	s.accountService = service.NewAccountService(userRepo, profileRepo, mail.LogMailer{}, store)
	return s, db
}

// injectUser returns middleware that fakes an authenticated user.
func injectUser(userID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	}
}

// createTestUser inserts a user with profile and a bcrypt password.
func createTestUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	profile := &models.Profile{UserID: user.ID, Picture: models.DefaultPicture}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	user.Profile = profile
	return user
}

// doJSON performs a JSON request against the app and decodes the response body.
func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}
