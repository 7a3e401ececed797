package dataloader

import "errors"

// ErrNotFound marks a key the batch function could not find. It is a
// per-item outcome: other keys in the same batch are unaffected.
var ErrNotFound = errors.New("dataloader: not found")

// Result is one positional answer from a batch function. It is either a
// found value or a per-item failure; construct it with Found, NotFound or
// Failed.
type Result[V any] struct {
	Value V
	Err   error
}

func Found[V any](v V) Result[V] {
	return Result[V]{Value: v}
}

func NotFound[V any]() Result[V] {
	return Result[V]{Err: ErrNotFound}
}

// Failed reports a per-item error other than not-found.
func Failed[V any](err error) Result[V] {
	return Result[V]{Err: err}
}

// OK reports whether the result holds a value.
func (r Result[V]) OK() bool {
	return r.Err == nil
}

// IsNotFound reports whether err marks a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
