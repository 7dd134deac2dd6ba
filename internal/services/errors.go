package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure; the HTTP boundary maps each kind to a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is the tagged error returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func internal(msg string, err error) *Error {
	return newError(KindInternal, msg, err)
}

// KindOf reports the kind of err; untagged errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrEmailTaken         = newError(KindConflict, "User with this email already exists", nil)
	ErrInvalidCredentials = newError(KindInvalidCredentials, "Email or password wrong", nil)
	ErrInvalidToken       = newError(KindUnauthenticated, "Invalid token", nil)
	ErrPostNotFound       = newError(KindNotFound, "Post not found", nil)
	ErrUserNotFound       = newError(KindNotFound, "User not found", nil)
	ErrNoPostsFound       = newError(KindNotFound, "No posts found", nil)
	ErrNotPostOwner       = newError(KindForbidden, "You are not authorized to modify this post", nil)
	ErrFederatedDisabled  = newError(KindNotFound, "Firebase login is not enabled", nil)
)
