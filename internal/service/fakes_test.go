package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

var errDB = errors.New("database is down")

// fakeAuthorRepo is an in-memory repository.AuthorRepository.
type fakeAuthorRepo struct {
	mu       sync.Mutex
	authors  map[int64]model.Author
	nextID   int64
	lastOpts repository.FindOptions
	err      error
}

func newFakeAuthorRepo(authors ...model.Author) *fakeAuthorRepo {
	f := &fakeAuthorRepo{authors: map[int64]model.Author{}, nextID: 1}
	for _, a := range authors {
		f.authors[a.ID] = a
		if a.ID >= f.nextID {
			f.nextID = a.ID + 1
		}
	}
	return f
}

func (f *fakeAuthorRepo) sorted() []model.Author {
	out := make([]model.Author, 0, len(f.authors))
	for _, a := range f.authors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAuthorRepo) FindAll(_ context.Context, opts repository.FindOptions) ([]model.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return page(f.sorted(), opts, func(a model.Author) int64 { return a.ID }), nil
}

func (f *fakeAuthorRepo) FindByID(_ context.Context, id int64) (*model.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.authors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeAuthorRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Author
	for _, id := range ids {
		if a, ok := f.authors[id]; ok {
			out = append(out, a)
		}
	}
	return out, f.err
}

func (f *fakeAuthorRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.authors)), nil
}

func (f *fakeAuthorRepo) Create(_ context.Context, in model.CreateAuthorInput) (*model.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a := model.Author{
		ID:        f.nextID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Birthdate: in.Birthdate,
		Added:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.nextID++
	f.authors[a.ID] = a
	return &a, nil
}

func (f *fakeAuthorRepo) Update(_ context.Context, id int64, in model.UpdateAuthorInput) (*model.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.authors[id]
	if !ok {
		return nil, nil
	}
	if in.FirstName != nil {
		a.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		a.LastName = *in.LastName
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if in.Birthdate != nil {
		a.Birthdate = *in.Birthdate
	}
	f.authors[id] = a
	return &a, nil
}

func (f *fakeAuthorRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.authors, id)
	return nil
}

// fakePostRepo is an in-memory repository.PostRepository. Creating a post
// for an author outside authorIDs fails like a foreign key would.
type fakePostRepo struct {
	mu        sync.Mutex
	posts     map[int64]model.Post
	authorIDs map[int64]bool
	nextID    int64
	err       error
}

func newFakePostRepo(authorIDs []int64, posts ...model.Post) *fakePostRepo {
	f := &fakePostRepo{posts: map[int64]model.Post{}, authorIDs: map[int64]bool{}, nextID: 1}
	for _, id := range authorIDs {
		f.authorIDs[id] = true
	}
	for _, p := range posts {
		f.posts[p.ID] = p
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakePostRepo) sorted() []model.Post {
	out := make([]model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePostRepo) FindAll(_ context.Context, opts repository.FindOptions) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return page(f.sorted(), opts, func(p model.Post) int64 { return p.ID }), nil
}

func (f *fakePostRepo) FindByID(_ context.Context, id int64) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePostRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Post
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakePostRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.posts)), nil
}

func (f *fakePostRepo) Create(_ context.Context, in model.CreatePostInput) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authorIDs[in.AuthorID] {
		return nil, apperror.ValidationFailed("author_id", "author does not exist")
	}
	p := model.Post{
		ID:          f.nextID,
		Title:       in.Title,
		AuthorID:    in.AuthorID,
		Description: in.Description,
		Content:     in.Content,
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	f.nextID++
	f.posts[p.ID] = p
	return &p, nil
}

func (f *fakePostRepo) Update(_ context.Context, id int64, in model.UpdatePostInput) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.AuthorID != nil {
		p.AuthorID = *in.AuthorID
	}
	if in.Description.Set {
		p.Description = in.Description.Value
	}
	if in.Content.Set {
		p.Content = in.Content.Value
	}
	f.posts[id] = p
	return &p, nil
}

func (f *fakePostRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) FindByAuthorID(_ context.Context, authorID int64) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Post{}
	for _, p := range f.sorted() {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) FindByAuthorIDs(ctx context.Context, authorIDs []int64) (map[int64][]model.Post, error) {
	out := make(map[int64][]model.Post, len(authorIDs))
	for _, id := range authorIDs {
		posts, err := f.FindByAuthorID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = posts
	}
	return out, nil
}

func (f *fakePostRepo) CountByAuthorID(ctx context.Context, authorID int64) (int64, error) {
	posts, err := f.FindByAuthorID(ctx, authorID)
	return int64(len(posts)), err
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]model.User{}, nextID: 1}
}

func (f *fakeUserRepo) find(match func(model.User) bool) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id }), nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Email == email }), nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username }), nil
}

func (f *fakeUserRepo) Create(_ context.Context, in model.CreateUserInput) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := model.User{
		ID:           f.nextID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	f.nextID++
	f.users[u.ID] = u
	return &u, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (fakeHasher) Verify(hash, p string) error {
	if hash != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Generate(userID int64, email string) (string, error) {
	return "token-for-" + email, nil
}

// page applies FindOptions the way the SQL store does.
func page[T any](items []T, opts repository.FindOptions, id func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if opts.ID == nil || id(it) == *opts.ID {
			out = append(out, it)
		}
	}
	if opts.Offset != nil && *opts.Offset > 0 {
		if *opts.Offset >= len(out) {
			return []T{}
		}
		out = out[*opts.Offset:]
	}
	if opts.Limit != nil && *opts.Limit >= 0 && *opts.Limit < len(out) {
		out = out[:*opts.Limit]
	}
	return out
}
