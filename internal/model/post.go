package model

import (
	"fmt"
	"time"
)

type Post struct {
	ID          int64
	Title       string
	AuthorID    int64
	Description *string
	Content     *string
	Date        time.Time
}

// PostRow mirrors one row of the posts table. Description and content are
// nullable columns.
type PostRow struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	AuthorID    int64     `db:"author_id"`
	Description *string   `db:"description"`
	Content     *string   `db:"content"`
	Date        Timestamp `db:"date"`
}

func (r PostRow) Validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: posts.id is missing", ErrMalformedRow)
	case r.AuthorID <= 0:
		return fmt.Errorf("%w: posts.author_id is missing for id %d", ErrMalformedRow, r.ID)
	case !r.Date.Valid:
		return fmt.Errorf("%w: posts.date is missing for id %d", ErrMalformedRow, r.ID)
	}
	return nil
}

type PostDto struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	AuthorID    int64   `json:"author_id"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	Date        string  `json:"date"`
}

type PostList struct {
	List  []PostDto `json:"list"`
	Count int64     `json:"count"`
}

type CreatePostInput struct {
	Title       string
	AuthorID    int64
	Description *string
	Content     *string
}

// UpdatePostInput is a partial update. Description and Content distinguish
// "not sent" from "set to null".
type UpdatePostInput struct {
	Title       *string
	AuthorID    *int64
	Description Nullable[string]
	Content     Nullable[string]
}

func (in UpdatePostInput) Empty() bool {
	return in.Title == nil && in.AuthorID == nil && !in.Description.Set && !in.Content.Set
}
