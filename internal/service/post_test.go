package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/security"
)

func seedPost(id, authorID int64) model.Post {
	return model.Post{
		ID:       id,
		Title:    "post",
		AuthorID: authorID,
		Date:     time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newPostService(repo *fakePostRepo) *PostService {
	return NewPostService(repo, security.NewSanitizer(), zerolog.Nop())
}

func TestPostServiceList(t *testing.T) {
	repo := newFakePostRepo([]int64{1}, seedPost(1, 1), seedPost(2, 1), seedPost(3, 1))
	svc := newPostService(repo)

	got, err := svc.List(context.Background(), ListArgs{Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Len(t, got.List, 2)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, "2023-06-01T12:00:00.000Z", got.List[0].Date)

	_, err = svc.List(context.Background(), ListArgs{Limit: intPtr(0)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostServiceByAuthor(t *testing.T) {
	repo := newFakePostRepo([]int64{1, 2}, seedPost(1, 1), seedPost(2, 2), seedPost(3, 1))
	svc := newPostService(repo)

	got, err := svc.ListByAuthor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Count)
	require.Len(t, got.List, 2)
	assert.Equal(t, int64(1), got.List[0].ID)
	assert.Equal(t, int64(3), got.List[1].ID)

	list, err := svc.FindByAuthor(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	n, err := svc.CountByAuthor(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.ListByAuthor(context.Background(), -1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostServiceGet(t *testing.T) {
	svc := newPostService(newFakePostRepo([]int64{1}, seedPost(5, 1)))

	got, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AuthorID)
	assert.Nil(t, got.Description)

	_, err = svc.Get(context.Background(), 6)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.EqualError(t, err, "Post with id 6 not found")
}

func TestPostServiceCreateSanitizes(t *testing.T) {
	svc := newPostService(newFakePostRepo([]int64{1}))

	got, err := svc.Create(context.Background(), CreatePostRequest{
		Title:       " Hello ",
		AuthorID:    1,
		Description: strPtr("<b>short</b> intro"),
		Content:     strPtr("<p>body</p><script>alert(1)</script>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "short intro", *got.Description)
	require.NotNil(t, got.Content)
	assert.Equal(t, "<p>body</p>", *got.Content)
}

func TestPostServiceCreateKeepsPlainText(t *testing.T) {
	svc := newPostService(newFakePostRepo([]int64{1}))

	got, err := svc.Create(context.Background(), CreatePostRequest{
		Title:       "Tom's Q&A",
		AuthorID:    1,
		Description: strPtr(`a < b & "c"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tom's Q&A", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, `a < b & "c"`, *got.Description)
}

func TestPostServiceRejectsMarkupOnlyTitle(t *testing.T) {
	p := seedPost(1, 1)
	svc := newPostService(newFakePostRepo([]int64{1}, p))

	_, err := svc.Create(context.Background(), CreatePostRequest{Title: "<b></b>", AuthorID: 1})
	require.ErrorIs(t, err, apperror.ErrValidation)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "title", appErr.Field)

	_, err = svc.Update(context.Background(), 1, UpdatePostRequest{Title: strPtr("<i> </i>")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostServiceCreateValidation(t *testing.T) {
	svc := newPostService(newFakePostRepo([]int64{1}))

	_, err := svc.Create(context.Background(), CreatePostRequest{AuthorID: 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(context.Background(), CreatePostRequest{Title: "t"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(context.Background(), CreatePostRequest{Title: "t", AuthorID: 99})
	require.ErrorIs(t, err, apperror.ErrValidation, "unknown author")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "author_id", appErr.Field)
}

func TestPostServiceUpdate(t *testing.T) {
	p := seedPost(1, 1)
	p.Description = strPtr("old")
	p.Content = strPtr("<p>old</p>")
	svc := newPostService(newFakePostRepo([]int64{1, 2}, p))

	got, err := svc.Update(context.Background(), 1, UpdatePostRequest{
		AuthorID:    int64Ptr(2),
		Description: model.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "post", got.Title)
	assert.Equal(t, int64(2), got.AuthorID)
	assert.Nil(t, got.Description, "explicit null clears")
	require.NotNil(t, got.Content, "absent field is kept")
	assert.Equal(t, "<p>old</p>", *got.Content)

	got, err = svc.Update(context.Background(), 1, UpdatePostRequest{
		Content: model.Some("<p onclick=\"x()\">new</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>new</p>", *got.Content)

	_, err = svc.Update(context.Background(), 9, UpdatePostRequest{Title: strPtr("t")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Update(context.Background(), 1, UpdatePostRequest{Title: strPtr("  ")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPostServiceDelete(t *testing.T) {
	svc := newPostService(newFakePostRepo([]int64{1}, seedPost(1, 1)))

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), apperror.ErrNotFound)
}
