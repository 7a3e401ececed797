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

var _ repository.PostRepository = (*PostRepo)(nil)

var postColumns = []string{"id", "title", "author_id", "description", "content", "date"}

// PostRepo reads and writes the posts table.
type PostRepo struct {
	s *Store
}

func (s *Store) Posts() *PostRepo {
	return &PostRepo{s: s}
}

func scanPostRow(sc rowScanner) (model.PostRow, error) {
	var r model.PostRow
	if err := sc.Scan(&r.ID, &r.Title, &r.AuthorID, &r.Description, &r.Content, &r.Date); err != nil {
		return r, err
	}
	return r, r.Validate()
}

func scanPost(sc rowScanner) (model.Post, error) {
	r, err := scanPostRow(sc)
	if err != nil {
		return model.Post{}, err
	}
	return mapper.PostToDomain(r), nil
}

// queryPosts scans raw rows and maps them in one pass.
func (r *PostRepo) queryPosts(ctx context.Context, q sq.Sqlizer) ([]model.Post, error) {
	rows, err := queryAll(ctx, r.s, q, scanPostRow)
	if err != nil {
		return nil, err
	}
	return mapper.PostsToDomain(rows), nil
}

func (r *PostRepo) selectPosts() sq.SelectBuilder {
	return r.s.sb.Select(postColumns...).From("posts")
}

// FindAll returns posts in insertion order.
func (r *PostRepo) FindAll(ctx context.Context, opts repository.FindOptions) ([]model.Post, error) {
	q := applyFindOptions(r.selectPosts().OrderBy("id ASC"), opts)

	posts, err := r.queryPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	post, err := queryOne(ctx, r.s, r.selectPosts().Where(sq.Eq{"id": id}), scanPost)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting post %d: %w", id, err)
	}
	return post, nil
}

func (r *PostRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	posts, err := r.queryPosts(ctx, r.selectPosts().Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting %d posts: %w", len(ids), err)
	}
	return posts, nil
}

func (r *PostRepo) FindByAuthorID(ctx context.Context, authorID int64) ([]model.Post, error) {
	q := r.selectPosts().Where(sq.Eq{"author_id": authorID}).OrderBy("id ASC")

	posts, err := r.queryPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts of author %d: %w", authorID, err)
	}
	return posts, nil
}

// FindByAuthorIDs loads the posts of several authors with a single query.
func (r *PostRepo) FindByAuthorIDs(ctx context.Context, authorIDs []int64) (map[int64][]model.Post, error) {
	result := make(map[int64][]model.Post, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}
	for _, id := range authorIDs {
		result[id] = []model.Post{}
	}

	q := r.selectPosts().Where(sq.Eq{"author_id": authorIDs}).OrderBy("id ASC")
	posts, err := r.queryPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing posts of %d authors: %w", len(authorIDs), err)
	}

	for _, p := range posts {
		result[p.AuthorID] = append(result[p.AuthorID], p)
	}
	return result, nil
}

func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.s.count(ctx, r.s.sb.Select("COUNT(*)").From("posts"))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting posts: %w", err)
	}
	return n, nil
}

func (r *PostRepo) CountByAuthorID(ctx context.Context, authorID int64) (int64, error) {
	n, err := r.s.count(ctx, r.s.sb.Select("COUNT(*)").From("posts").Where(sq.Eq{"author_id": authorID}))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting posts of author %d: %w", authorID, err)
	}
	return n, nil
}

func (r *PostRepo) Create(ctx context.Context, in model.CreatePostInput) (*model.Post, error) {
	id, err := r.s.insert(ctx, r.s.sb.Insert("posts").
		Columns("title", "author_id", "description", "content").
		Values(in.Title, in.AuthorID, nullString(in.Description), nullString(in.Content)))
	if err != nil {
		return nil, wrapPostWriteErr(err, in.AuthorID, "creating post")
	}

	post, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("sqlstore: post %d missing after insert", id)
	}
	return post, nil
}

// Update returns (nil, nil) when id does not exist.
func (r *PostRepo) Update(ctx context.Context, id int64, in model.UpdatePostInput) (*model.Post, error) {
	set := map[string]any{}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.AuthorID != nil {
		set["author_id"] = *in.AuthorID
	}
	if in.Description.Set {
		set["description"] = nullString(in.Description.Value)
	}
	if in.Content.Set {
		set["content"] = nullString(in.Content.Value)
	}

	if len(set) > 0 {
		q := r.s.sb.Update("posts").SetMap(set).Where(sq.Eq{"id": id})
		if _, err := r.s.exec(ctx, q); err != nil {
			var authorID int64
			if in.AuthorID != nil {
				authorID = *in.AuthorID
			}
			return nil, wrapPostWriteErr(err, authorID, fmt.Sprintf("updating post %d", id))
		}
	}

	return r.FindByID(ctx, id)
}

func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.s.exec(ctx, r.s.sb.Delete("posts").Where(sq.Eq{"id": id})); err != nil {
		return fmt.Errorf("sqlstore: deleting post %d: %w", id, err)
	}
	return nil
}

// wrapPostWriteErr turns a dangling author_id into a validation error.
func wrapPostWriteErr(err error, authorID int64, op string) error {
	if kind, _ := classifyConstraint(err); kind == constraintForeignKey {
		return apperror.ValidationFailed("author_id", fmt.Sprintf("author %d does not exist", authorID))
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}

// nullString maps a nil pointer to SQL NULL.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
