package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedRow is returned when a row read from the store lacks a field
// every entity must have.
var ErrMalformedRow = errors.New("malformed row")

// Layouts accepted when a date arrives as text. SQLite stores times as text,
// and the modernc driver writes them in the second layout.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a date or timestamp in any layout the stores produce.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// Timestamp is a nullable time column that accepts native times as well as
// their textual forms.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// NewTimestamp returns a valid Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
	case time.Time:
		*ts = NewTimestamp(v)
	case string:
		t, err := ParseTime(v)
		if err != nil {
			return fmt.Errorf("model: scanning timestamp: %w", err)
		}
		*ts = NewTimestamp(t)
	case []byte:
		return ts.Scan(string(v))
	default:
		return fmt.Errorf("model: cannot scan %T into Timestamp", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	if !ts.Valid {
		return nil, nil
	}
	return ts.Time, nil
}

// Nullable distinguishes a field that was not sent from one explicitly set
// to null. The zero value means "not sent".
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns a Nullable explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Some returns a Nullable set to v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// UnmarshalJSON is only called for keys present in the document, so a
// decoded Nullable is always Set.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
