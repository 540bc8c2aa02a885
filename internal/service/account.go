// Package service — account business logic.
//
// AccountService is the layer between the HTTP handlers and the leaf
// collaborators:
//
//	AccountHandler (HTTP) → AccountService (rules) → UserRepository (DB)
//	                                               ↘ PasswordHasher (bcrypt)
//	                                               ↘ TokenIssuer (JWT)
//	                                               ↘ storage.Uploader (image host)
//
// KEY RESPONSIBILITIES:
//   - Registration: validate input, upload the avatar, hash the password,
//     create the record — in that order, never persisting a raw password
//   - Login: look up, verify, issue — strictly in that order, stopping at
//     the first failure so later collaborators are never touched
//   - Stay free of HTTP concerns; status codes are the handler's business
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/repository"
	"github.com/sakif/account-service/internal/storage"
)

// invalidCredentialsMessage is shown for a failed password check. It is
// deliberately vague — naming which of username/password was wrong would
// help an attacker enumerate accounts.
const invalidCredentialsMessage = "Please enter a valid username or password"

// PasswordHasher produces and verifies one-way password hashes.
// *auth.PasswordService is the production implementation; tests substitute
// spies to prove the hasher is skipped when lookup fails.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// TokenIssuer signs an access token for a user ID.
// *auth.TokenService is the production implementation.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// AccountService handles registration and login.
//
// DEPENDENCIES (injected via NewAccountService):
//   - users    repository.UserRepository → create/look up user records
//   - hasher   PasswordHasher            → bcrypt hash + verify
//   - tokens   TokenIssuer               → sign JWTs on successful login
//   - uploads  storage.Uploader          → avatar image host (may be nil)
//   - logger   *slog.Logger              → structured logging
type AccountService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	uploads storage.Uploader
	logger  *slog.Logger
}

// NewAccountService creates an AccountService with all required dependencies.
// uploads may be nil when no image host is configured; registrations with an
// avatar file are then rejected with a validation error.
func NewAccountService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	uploads storage.Uploader,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		uploads: uploads,
		logger:  logger,
	}
}

// RegisterInput carries everything a registration request may supply.
//
// Avatar handling has two wirings, matching the two ways clients register:
//   - AvatarFile set (multipart upload) → we upload to the image host and
//     store the returned references
//   - AvatarPublicID/AvatarURL set (JSON body) → the client already uploaded
//     elsewhere and passes the references through
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string

	AvatarFile *AvatarFile

	AvatarPublicID string
	AvatarURL      string
}

// AvatarFile is an in-memory avatar image from a multipart form.
// Avatars are small (handlers cap the form size), so buffering the bytes is
// simpler than threading a multipart.File's lifetime through the service.
type AvatarFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Register creates a new user account.
//
// Order matters and mirrors what the response promises:
//  1. Validate required fields (absent fields are a caller error, 400)
//  2. Upload the avatar if one was attached (failure propagates — an
//     account with a half-uploaded avatar is worse than a retried request)
//  3. Hash the raw password; it is never stored or logged
//  4. Create the record; UNIQUE violations surface as conflicts (409)
//
// The returned User is the repository's canonical record.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	avatarPublicID := in.AvatarPublicID
	avatarURL := in.AvatarURL
	if in.AvatarFile != nil {
		if s.uploads == nil {
			return nil, apperror.ValidationFailed("avatar", "avatar uploads are not enabled")
		}
		res, err := s.uploads.Upload(ctx, in.AvatarFile.Filename, in.AvatarFile.ContentType,
			bytes.NewReader(in.AvatarFile.Data))
		if err != nil {
			return nil, fmt.Errorf("service/account: uploading avatar for %q: %w", in.Username, err)
		}
		avatarPublicID = res.PublicID
		avatarURL = res.URL
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password for %q: %w", in.Username, err)
	}

	user := &model.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Username:       in.Username,
		PasswordHash:   hash,
		AvatarPublicID: avatarPublicID,
		AvatarURL:      avatarURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/account: creating user %q: %w", in.Username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a username/password pair and issues an access token.
//
// Three steps, strictly ordered and short-circuiting:
//
//	Lookup → Verify → Issue
//
// An unknown username stops before the hasher runs; a failed verification
// stops before the signer runs. The distinct not-found error (vs the vague
// invalid-credentials one) is the observed API contract — see DESIGN.md for
// the enumeration trade-off.
func (s *AccountService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/account: looking up user %q: %w", username, err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, fmt.Errorf("service/account: verifying password for %q: %w",
			username, apperror.Unauthorized(invalidCredentialsMessage))
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	session := model.NewSession(user, token)
	return &session, nil
}

// GetUserByID returns the user for the given internal ID.
// Used by the /api/me handler after the middleware validates the bearer
// token and extracts the ID from the token's Subject claim.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/account: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id, err)
	}

	return user, nil
}

// validateRegistration checks the required registration fields.
// The original API contract left missing fields undefined; rejecting them
// with an explicit 400 beats failing somewhere inside bcrypt or the INSERT.
func validateRegistration(in RegisterInput) error {
	required := []struct {
		field, value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"username", in.Username},
		{"password", in.Password},
	}
	for _, r := range required {
		if r.value == "" {
			return apperror.ValidationFailed(r.field, r.field+" is required")
		}
	}
	return nil
}
