package sqlstore

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at"}

type UserRepo struct {
	s *Store
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{s: s}
}

func scanUser(sc rowScanner) (model.User, error) {
	var r model.UserRow
	if err := sc.Scan(&r.ID, &r.Username, &r.Email, &r.PasswordHash, &r.CreatedAt); err != nil {
		return model.User{}, err
	}
	if err := r.Validate(); err != nil {
		return model.User{}, err
	}
	return mapper.UserToDomain(r), nil
}

func (r *UserRepo) findOne(ctx context.Context, where sq.Eq, what string) (*model.User, error) {
	q := r.s.sb.Select(userColumns...).From("users").Where(where)
	user, err := queryOne(ctx, r.s, q, scanUser)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting user by %s: %w", what, err)
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id}, "id")
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email}, "email")
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"username": username}, "username")
}

// Create maps a unique violation to apperror.Conflict. Services check for
// duplicates first; this covers two registrations racing.
func (r *UserRepo) Create(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	id, err := r.s.insert(ctx, r.s.sb.Insert("users").
		Columns("username", "email", "password_hash").
		Values(in.Username, in.Email, in.PasswordHash))
	if err != nil {
		if kind, detail := classifyConstraint(err); kind == constraintUnique {
			field := "username"
			if strings.Contains(detail, "email") {
				field = "email"
			}
			return nil, apperror.Conflict("User", field)
		}
		return nil, fmt.Errorf("sqlstore: creating user: %w", err)
	}

	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("sqlstore: user %d missing after insert", id)
	}
	return user, nil
}
