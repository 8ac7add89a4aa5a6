package services

import (
	"errors"
	"fmt"

	"github.com/inkpost/blogapi/internal/store"
)

var (
	// ErrPostNotFound is returned when no post matches a slug.
	ErrPostNotFound = fmt.Errorf("post %w", store.ErrNotFound)
	// ErrCommentNotFound is returned when no comment matches an id under a post.
	ErrCommentNotFound = fmt.Errorf("comment %w", store.ErrNotFound)

	// ErrDuplicateTitle is returned when a title slugifies onto an existing post.
	ErrDuplicateTitle = fmt.Errorf("duplicate title: %w", store.ErrConflict)
	// ErrInvalidAuthor is returned when a post is created without an owner.
	ErrInvalidAuthor = errors.New("invalid author")
	// ErrAuthorNameRequired is returned for anonymous comments without a name.
	ErrAuthorNameRequired = errors.New("author name required")

	// ErrUnknownIdentifier is returned when no author has the given email.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrInvalidCredential is returned when the password does not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNoIdentifier is returned when a session carries no author id.
	ErrNoIdentifier = errors.New("no identifier in session")
	// ErrUserNotFound is returned when a session refers to a missing author.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when provisioning an author with a used email.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", store.ErrConflict)
)
