package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/service"
)

// maxAvatarFormSize caps a multipart registration body. Avatars are profile
// thumbnails, not photo archives.
const maxAvatarFormSize = 5 << 20 // 5 MiB

// AccountHandler exposes the authentication endpoints.
//
//	POST /api/register → create an account (optionally with an avatar)
//	POST /api/login    → verify credentials, issue a bearer token
//	GET  /api/me       → current user's profile (RequireAuth-protected)
//
// The handler owns HTTP concerns only: decoding bodies, picking status
// codes, shaping envelopes. All rules live in service.AccountService.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler. Dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// registerRequest is the JSON body for POST /api/register.
// The avatar_* passthrough fields cover clients that upload the image to
// the host themselves and only hand us the references.
type registerRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	AvatarPublicID string `json:"avatar_public_id"`
	AvatarURL      string `json:"avatar_url"`
}

// loginRequest is the JSON body for POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new user account.
//
// HTTP: POST /api/register
//
// Accepts either a JSON body or multipart/form-data. Multipart is for
// clients attaching the avatar image itself (field name "avatar"); the
// profile fields then arrive as ordinary form values.
//
// Success: 201 with the stored profile fields — and only those. The raw
// password and the avatar references never appear in the echo.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeRegister(r)
	if err != nil {
		h.logger.Warn("invalid register request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, envelope{Result: resultFailed, Message: "Invalid request body"})
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Success", "User Has Been Successfully Created", user.Profile())
}

// HandleLogin verifies credentials and issues an access token.
//
// HTTP: POST /api/login
//
// Outcomes:
//   - 404 "User Not Found" — no account with that username
//   - 401 "Please enter a valid username or password" — wrong password
//   - 200 with the public profile plus a fresh accessToken
//
// The lowercase "success" tag on the 200 path is the observed contract —
// don't tidy it up without migrating every consumer.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, envelope{Result: resultFailed, Message: "Invalid request body"})
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "success", "Login Successfully", session)
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't bet on route wiring.
		writeJSON(w, http.StatusUnauthorized, envelope{Result: resultFailed, Message: "valid authentication required"})
		return
	}

	user, err := h.accounts.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Success", "OK", user)
}

// decodeRegister turns either request encoding into a service.RegisterInput.
func (h *AccountHandler) decodeRegister(r *http.Request) (service.RegisterInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.decodeMultipartRegister(r)
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return service.RegisterInput{}, err
	}

	return service.RegisterInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPublicID: req.AvatarPublicID,
		AvatarURL:      req.AvatarURL,
	}, nil
}

// decodeMultipartRegister reads the profile fields and the optional avatar
// file out of a multipart form.
func (h *AccountHandler) decodeMultipartRegister(r *http.Request) (service.RegisterInput, error) {
	if err := r.ParseMultipartForm(maxAvatarFormSize); err != nil {
		return service.RegisterInput{}, err
	}

	in := service.RegisterInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Username:  r.FormValue("username"),
		Password:  r.FormValue("password"),
	}

	file, header, err := r.FormFile("avatar")
	switch err {
	case nil:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return service.RegisterInput{}, err
		}
		in.AvatarFile = &service.AvatarFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	case http.ErrMissingFile:
		// No avatar attached — registration proceeds without one.
	default:
		return service.RegisterInput{}, err
	}

	return in, nil
}
