package model

import (
	"fmt"
	"time"
)

// User is a registered account. Only the auth use cases read users.
//
// PasswordHash is never serialised: UserDto is the only shape that leaves
// the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UserRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    Timestamp `db:"created_at"`
}

func (r UserRow) Validate() error {
	switch {
	case r.ID <= 0:
		return fmt.Errorf("%w: users.id is missing", ErrMalformedRow)
	case r.PasswordHash == "":
		return fmt.Errorf("%w: users.password_hash is missing for id %d", ErrMalformedRow, r.ID)
	case !r.CreatedAt.Valid:
		return fmt.Errorf("%w: users.created_at is missing for id %d", ErrMalformedRow, r.ID)
	}
	return nil
}

type UserDto struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	Token string  `json:"token"`
	User  UserDto `json:"user"`
}

type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}
