package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(injectUser(userID))
	app.Get("/user_profile/", s.GetProfile)
	app.Post("/user_profile/", s.UpdateProfilePicture)
	return app
}

func uploadPicture(t *testing.T, app *fiber.App, field string, content []byte) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/user_profile/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	user := createTestUser(t, db, "maria", "Secret123")
	app := newProfileApp(s, user.ID)

	resp, body := doJSON(t, app, http.MethodGet, "/user_profile/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	profile := body["profile"].(map[string]any)
	assert.Equal(t, models.DefaultPicture, profile["picture"])
	userBody := body["user"].(map[string]any)
	assert.Equal(t, "maria", userBody["username"])
	// The password hash never leaves the API.
	_, leaked := userBody["password"]
	assert.False(t, leaked)
}

func TestUpdateProfilePicture(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	user := createTestUser(t, db, "maria", "Secret123")
	app := newProfileApp(s, user.ID)

	resp, body := uploadPicture(t, app, "picture", testPNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	picture := body["picture"].(string)
	assert.NotEqual(t, models.DefaultPicture, picture)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, picture, profile.Picture)
}

func TestUpdateProfilePicture_Rejections(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	user := createTestUser(t, db, "maria", "Secret123")
	app := newProfileApp(s, user.ID)

	t.Run("no file", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/user_profile/", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong field name", func(t *testing.T) {
		resp, _ := uploadPicture(t, app, "file", testPNG(t))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not an image", func(t *testing.T) {
		resp, _ := uploadPicture(t, app, "picture", []byte("plain text"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
