package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/mapper"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

var _ repository.AuthorRepository = (*AuthorRepo)(nil)

var authorColumns = []string{"id", "first_name", "last_name", "email", "birthdate", "added"}

// AuthorRepo reads and writes the authors table.
type AuthorRepo struct {
	s *Store
}

func (s *Store) Authors() *AuthorRepo {
	return &AuthorRepo{s: s}
}

func scanAuthorRow(sc rowScanner) (model.AuthorRow, error) {
	var r model.AuthorRow
	if err := sc.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Email, &r.Birthdate, &r.Added); err != nil {
		return r, err
	}
	return r, r.Validate()
}

func scanAuthor(sc rowScanner) (model.Author, error) {
	r, err := scanAuthorRow(sc)
	if err != nil {
		return model.Author{}, err
	}
	return mapper.AuthorToDomain(r), nil
}

// queryAuthors scans raw rows and maps them in one pass.
func (r *AuthorRepo) queryAuthors(ctx context.Context, q sq.Sqlizer) ([]model.Author, error) {
	rows, err := queryAll(ctx, r.s, q, scanAuthorRow)
	if err != nil {
		return nil, err
	}
	return mapper.AuthorsToDomain(rows), nil
}

func (r *AuthorRepo) selectAuthors() sq.SelectBuilder {
	return r.s.sb.Select(authorColumns...).From("authors")
}

func (r *AuthorRepo) FindAll(ctx context.Context, opts repository.FindOptions) ([]model.Author, error) {
	q := applyFindOptions(r.selectAuthors().OrderBy("first_name ASC", "last_name ASC", "id ASC"), opts)

	authors, err := r.queryAuthors(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing authors: %w", err)
	}
	return authors, nil
}

func (r *AuthorRepo) FindByID(ctx context.Context, id int64) (*model.Author, error) {
	author, err := queryOne(ctx, r.s, r.selectAuthors().Where(sq.Eq{"id": id}), scanAuthor)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting author %d: %w", id, err)
	}
	return author, nil
}

func (r *AuthorRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Author, error) {
	if len(ids) == 0 {
		return []model.Author{}, nil
	}

	authors, err := r.queryAuthors(ctx, r.selectAuthors().Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting %d authors: %w", len(ids), err)
	}
	return authors, nil
}

func (r *AuthorRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.s.count(ctx, r.s.sb.Select("COUNT(*)").From("authors"))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting authors: %w", err)
	}
	return n, nil
}

func (r *AuthorRepo) Create(ctx context.Context, in model.CreateAuthorInput) (*model.Author, error) {
	id, err := r.s.insert(ctx, r.s.sb.Insert("authors").
		Columns("first_name", "last_name", "email", "birthdate").
		Values(in.FirstName, in.LastName, in.Email, in.Birthdate.UTC()))
	if err != nil {
		if kind, _ := classifyConstraint(err); kind == constraintUnique {
			return nil, apperror.Conflict("Author", "email")
		}
		return nil, fmt.Errorf("sqlstore: creating author: %w", err)
	}

	// Read back so the caller sees the stored defaults (added).
	author, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("sqlstore: author %d missing after insert", id)
	}
	return author, nil
}

// Update returns (nil, nil) when id does not exist.
func (r *AuthorRepo) Update(ctx context.Context, id int64, in model.UpdateAuthorInput) (*model.Author, error) {
	set := map[string]any{}
	if in.FirstName != nil {
		set["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		set["last_name"] = *in.LastName
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.Birthdate != nil {
		set["birthdate"] = in.Birthdate.UTC()
	}

	if len(set) > 0 {
		q := r.s.sb.Update("authors").SetMap(set).Where(sq.Eq{"id": id})
		if _, err := r.s.exec(ctx, q); err != nil {
			if kind, _ := classifyConstraint(err); kind == constraintUnique {
				return nil, apperror.Conflict("Author", "email")
			}
			return nil, fmt.Errorf("sqlstore: updating author %d: %w", id, err)
		}
	}

	return r.FindByID(ctx, id)
}

func (r *AuthorRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.s.exec(ctx, r.s.sb.Delete("authors").Where(sq.Eq{"id": id})); err != nil {
		return fmt.Errorf("sqlstore: deleting author %d: %w", id, err)
	}
	return nil
}
