package repository

import (
	"context"

	"github.com/sakif/account-service/internal/model"
)

// UserRepository is the persistence contract the account service depends on.
//
// The service layer never sees SQL. It hands a populated User to Create
// (which assigns ID and timestamps) and looks records up by the two
// identifiers the handlers authenticate with. Uniqueness of username and
// email is the repository's job — implementations surface violations as
// apperror.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}
