package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/account-service/internal/apperror"
	"github.com/sakif/account-service/internal/model"
	"github.com/sakif/account-service/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user record.
//
// The repository assigns the ID (xid — sortable, URL-safe, no coordination
// needed) and both timestamps, then writes them back into the caller's
// struct so the service can echo the canonical record.
//
// UNIQUENESS:
// username and email carry UNIQUE constraints in the schema. We do NOT
// pre-check with a SELECT — that would be a race (two registrations could
// both pass the check). Instead we insert and translate the constraint
// violation into apperror.ErrConflict, naming the offending column.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, email, username, password,
		                    avatar_public_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.AvatarPublicID,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			switch column {
			case "username":
				return apperror.Conflict("username", user.Username)
			case "email":
				return apperror.Conflict("email", user.Email)
			}
			return apperror.Conflict(column, "")
		}
		return fmt.Errorf("sqlite: inserting user (username=%s): %w", user.Username, err)
	}

	return nil
}

// GetByUsername retrieves a user by their unique username.
// Returns apperror.ErrNotFound if no such user exists — the login flow
// depends on being able to distinguish "absent" from "query failed".
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getOne(ctx, `WHERE username = ?`, username)
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getOne(ctx, `WHERE id = ?`, id)
}

// getOne runs a single-row user lookup with the given WHERE clause.
func (db *DB) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, username, password,
		        avatar_public_id, avatar_url, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.AvatarPublicID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User Not Found")
		}
		return nil, fmt.Errorf("sqlite: getting user (%v): %w", arg, err)
	}

	return &u, nil
}

// uniqueViolation reports whether err is a SQLite UNIQUE constraint failure
// and, if so, which column tripped it.
//
// modernc.org/sqlite surfaces these as
// "constraint failed: UNIQUE constraint failed: users.username (2067)".
// Matching on the message is not pretty, but database/sql gives us nothing
// more structured for this driver.
func uniqueViolation(err error) (column string, ok bool) {
	msg := err.Error()
	const marker = "UNIQUE constraint failed: users."
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	rest := msg[idx+len(marker):]
	if end := strings.IndexAny(rest, " ,("); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}
