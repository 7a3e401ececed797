// Package mapper converts between store rows, domain entities and DTOs.
// Every function here is pure.
package mapper

import (
	"fmt"
	"time"

	"github.com/sakif/blog-api/internal/model"
)

// ISOLayout renders instants in UTC with millisecond precision, e.g.
// 2024-03-09T14:05:06.000Z.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// ZeroDate is the zero instant in ISOLayout. FormatDate falls back to it so
// DTO dates are always parseable.
var ZeroDate = time.Time{}.Format(ISOLayout)

// FormatDate normalises a date to an ISO-8601 string. It accepts the native
// time types as well as dates already rendered as text; text is reparsed so
// the output is always in ISOLayout. Absent or unrecognised input yields
// ZeroDate, never "".
func FormatDate(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.UTC().Format(ISOLayout)
	case *time.Time:
		if d == nil {
			return ZeroDate
		}
		return d.UTC().Format(ISOLayout)
	case model.Timestamp:
		if !d.Valid {
			return ZeroDate
		}
		return d.Time.UTC().Format(ISOLayout)
	case string:
		t, err := model.ParseTime(d)
		if err != nil {
			return ZeroDate
		}
		return t.UTC().Format(ISOLayout)
	case fmt.Stringer:
		return FormatDate(d.String())
	default:
		return ZeroDate
	}
}

func AuthorToDomain(row model.AuthorRow) model.Author {
	return model.Author{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Birthdate: row.Birthdate.Time,
		Added:     row.Added.Time,
	}
}

// AuthorsToDomain maps element-wise; the result is never nil.
func AuthorsToDomain(rows []model.AuthorRow) []model.Author {
	out := make([]model.Author, 0, len(rows))
	for _, r := range rows {
		out = append(out, AuthorToDomain(r))
	}
	return out
}

func AuthorToDto(a model.Author) model.AuthorDto {
	return model.AuthorDto{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Birthdate: FormatDate(a.Birthdate),
		Added:     FormatDate(a.Added),
	}
}

// AuthorsToDto maps element-wise; the result is never nil so it encodes as [].
func AuthorsToDto(authors []model.Author) []model.AuthorDto {
	out := make([]model.AuthorDto, 0, len(authors))
	for _, a := range authors {
		out = append(out, AuthorToDto(a))
	}
	return out
}

func PostToDomain(row model.PostRow) model.Post {
	return model.Post{
		ID:          row.ID,
		Title:       row.Title,
		AuthorID:    row.AuthorID,
		Description: row.Description,
		Content:     row.Content,
		Date:        row.Date.Time,
	}
}

func PostsToDomain(rows []model.PostRow) []model.Post {
	out := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		out = append(out, PostToDomain(r))
	}
	return out
}

func PostToDto(p model.Post) model.PostDto {
	return model.PostDto{
		ID:          p.ID,
		Title:       p.Title,
		AuthorID:    p.AuthorID,
		Description: p.Description,
		Content:     p.Content,
		Date:        FormatDate(p.Date),
	}
}

func PostsToDto(posts []model.Post) []model.PostDto {
	out := make([]model.PostDto, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostToDto(p))
	}
	return out
}

func UserToDomain(row model.UserRow) model.User {
	return model.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
	}
}

func UserToDto(u model.User) model.UserDto {
	return model.UserDto{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: FormatDate(u.CreatedAt),
	}
}
