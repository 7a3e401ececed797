// Package model defines the data shapes used throughout the application:
// domain entities, the rows they are read from, the DTOs they are written as,
// and the inputs that mutate them.
//
// Three representations of the same record exist on purpose:
//
//	AuthorRow:  what the store returns (snake_case db columns)
//	Author:     what services and repositories pass around
//	AuthorDto:  what clients see (snake_case JSON, ISO-8601 dates)
//
// Entities never carry JSON tags; only DTOs define the wire format.
package model

import (
	"fmt"
	"time"
)

// Author is the domain entity for a post author.
type Author struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Birthdate time.Time
	Added     time.Time
}

// AuthorRow mirrors one row of the authors table.
type AuthorRow struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Birthdate Timestamp `db:"birthdate"`
	Added     Timestamp `db:"added"`
}

// Validate rejects rows that are missing expected fields.
func (r AuthorRow) Validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: authors.id is missing", ErrMalformedRow)
	case !r.Birthdate.Valid:
		return fmt.Errorf("%w: authors.birthdate is missing for id %d", ErrMalformedRow, r.ID)
	case !r.Added.Valid:
		return fmt.Errorf("%w: authors.added is missing for id %d", ErrMalformedRow, r.ID)
	}
	return nil
}

// AuthorDto is the wire representation of an Author. Field names are part
// of the public API and shared by REST and GraphQL.
type AuthorDto struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate"`
	Added     string `json:"added"`
}

// AuthorList is a page of authors plus the total number of authors.
type AuthorList struct {
	List  []AuthorDto `json:"list"`
	Count int64       `json:"count"`
}

// CreateAuthorInput names the fields required to create an author.
type CreateAuthorInput struct {
	FirstName string
	LastName  string
	Email     string
	Birthdate time.Time
}

// UpdateAuthorInput is a partial update: nil fields are left untouched.
type UpdateAuthorInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Birthdate *time.Time
}

// Empty reports whether the input changes nothing.
func (in UpdateAuthorInput) Empty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Email == nil && in.Birthdate == nil
}
