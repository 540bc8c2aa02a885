package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/handler"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/service"
	"github.com/sakif/account-service/internal/storage"
)

// The handler tests run the real AccountService over in-memory fakes, so a
// request exercises the whole decode → orchestrate → envelope path and the
// assertions can pin the exact response contract.

type memRepo struct {
	byUsername map[string]*model.User
	createErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{byUsername: make(map[string]*model.User)}
}

func (m *memRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, taken := m.byUsername[user.Username]; taken {
		return apperror.Conflict("username", user.Username)
	}
	user.ID = "usr_1"
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	m.byUsername[user.Username] = &copied
	return nil
}

func (m *memRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, apperror.NotFound("User Not Found")
	}
	return u, nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range m.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NotFound("User Not Found")
}

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "#" + plaintext, nil }
func (plainHasher) Verify(hash, plaintext string) error {
	if hash != "#"+plaintext {
		return errors.New("invalid password")
	}
	return nil
}

type staticIssuer struct{ token string }

func (s staticIssuer) Generate(userID string) (string, error) { return s.token, nil }

type stubUploader struct {
	err    error
	called bool
}

func (s *stubUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*storage.UploadResult, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return &storage.UploadResult{PublicID: "avatars/" + filename, URL: "https://img.test/avatars/" + filename}, nil
}

func newTestHandler(t *testing.T, repo *memRepo, uploads storage.Uploader) *handler.AccountHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewAccountService(repo, plainHasher{}, staticIssuer{token: "12121213"}, uploads, logger)
	return handler.NewAccountHandler(svc, logger)
}

// seedUser plants an account the login tests authenticate against.
func seedUser(repo *memRepo) *model.User {
	u := &model.User{
		ID:           "usr_7",
		FirstName:    "binar",
		LastName:     "academy",
		Email:        "binar@gmail.com",
		Username:     "binarian",
		PasswordHash: "#123456",
	}
	repo.byUsername[u.Username] = u
	return u
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// =========================================================================
// REGISTER
// =========================================================================

func TestHandleRegister(t *testing.T) {
	t.Run("201 on successful registration", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(t, repo, &stubUploader{})

		reqBody := `{
			"first_name": "binar",
			"last_name":  "academy",
			"email":      "binar103@gmail.com",
			"username":   "binar103",
			"password":   "123456"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		raw := rr.Body.String()
		body := decodeBody(t, rr)
		assert.Equal(t, "Success", body["result"])
		assert.Equal(t, "User Has Been Successfully Created", body["message"])
		assert.Equal(t, map[string]any{
			"first_name": "binar",
			"last_name":  "academy",
			"email":      "binar103@gmail.com",
			"username":   "binar103",
		}, body["data"])

		// Neither the raw password nor any hash of it may be echoed
		assert.NotContains(t, raw, "123456")
		assert.NotContains(t, raw, "password")
	})

	t.Run("400 on missing required field", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(t, repo, &stubUploader{})

		reqBody := `{"first_name":"binar","last_name":"academy","email":"binar103@gmail.com","username":"binar103"}`
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed", body["result"])
	})

	t.Run("400 on malformed JSON", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(t, repo, &stubUploader{})

		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"first_name":`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("409 on duplicate username", func(t *testing.T) {
		repo := newMemRepo()
		seedUser(repo)
		h := newTestHandler(t, repo, &stubUploader{})

		reqBody := `{"first_name":"b","last_name":"a","email":"x@y.z","username":"binarian","password":"123456"}`
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(reqBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed", body["result"])
	})

	t.Run("multipart form with avatar file", func(t *testing.T) {
		repo := newMemRepo()
		uploader := &stubUploader{}
		h := newTestHandler(t, repo, uploader)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("first_name", "binar"))
		require.NoError(t, mw.WriteField("last_name", "academy"))
		require.NoError(t, mw.WriteField("email", "binar103@gmail.com"))
		require.NoError(t, mw.WriteField("username", "binar103"))
		require.NoError(t, mw.WriteField("password", "123456"))
		fw, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte{0x89, 'P', 'N', 'G'})
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/register", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.True(t, uploader.called, "avatar file should reach the uploader")

		// The stored record carries the avatar references...
		stored := repo.byUsername["binar103"]
		require.NotNil(t, stored)
		assert.Equal(t, "avatars/me.png", stored.AvatarPublicID)

		// ...but the registration echo does not
		assert.NotContains(t, rr.Body.String(), "avatars/me.png")
	})

	t.Run("500 with generic message on upload failure", func(t *testing.T) {
		repo := newMemRepo()
		uploader := &stubUploader{err: errors.New("connect to img host: connection refused")}
		h := newTestHandler(t, repo, uploader)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("first_name", "binar"))
		require.NoError(t, mw.WriteField("last_name", "academy"))
		require.NoError(t, mw.WriteField("email", "binar103@gmail.com"))
		require.NoError(t, mw.WriteField("username", "binar103"))
		require.NoError(t, mw.WriteField("password", "123456"))
		fw, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte{1})
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/register", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		raw := rr.Body.String()
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed", body["result"])
		assert.Equal(t, "Internal Server Error", body["message"])
		// Internal failure detail must never leak into the response
		assert.NotContains(t, raw, "connection refused")
	})
}

// =========================================================================
// LOGIN
// =========================================================================

func TestHandleLogin(t *testing.T) {
	t.Run("404 if user not found", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(t, repo, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"username":"binarian"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed", body["result"])
		assert.Equal(t, "User Not Found", body["message"])
		assert.NotContains(t, body, "data")
	})

	t.Run("401 if password does not match", func(t *testing.T) {
		repo := newMemRepo()
		seedUser(repo)
		h := newTestHandler(t, repo, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"username":"binarian","password":"654321"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Failed", body["result"])
		assert.Equal(t, "Please enter a valid username or password", body["message"])
		assert.NotContains(t, body, "data")
	})

	t.Run("200 with fresh token on success", func(t *testing.T) {
		repo := newMemRepo()
		seedUser(repo)
		h := newTestHandler(t, repo, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"username":"binarian","password":"123456"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		raw := rr.Body.String()
		body := decodeBody(t, rr)
		// Lowercase tag on this path — observed contract
		assert.Equal(t, "success", body["result"])
		assert.Equal(t, "Login Successfully", body["message"])
		assert.Equal(t, map[string]any{
			"id":          "usr_7",
			"first_name":  "binar",
			"last_name":   "academy",
			"email":       "binar@gmail.com",
			"username":    "binarian",
			"accessToken": "12121213",
		}, body["data"])

		// The stored hash must never appear anywhere in the response
		assert.NotContains(t, raw, "#123456")
	})

	t.Run("400 on malformed JSON", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(t, repo, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":`))
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
