package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inkpost/blogapi/internal/store"
	"github.com/inkpost/blogapi/types"
	"golang.org/x/crypto/bcrypt"
)

// AuthorRepository defines persistence operations for authors.
type AuthorRepository interface {
	GetByID(ctx context.Context, id string) (types.Author, error)
	GetByEmail(ctx context.Context, email string) (types.Author, error)
	Create(ctx context.Context, author types.Author) (types.Author, error)
}

// PasswordHasher hashes and verifies author passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. A zero Cost uses
// bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// AuthService verifies credentials and maps authors to and from the
// identifier stored in a session.
type AuthService struct {
	repo   AuthorRepository
	hasher PasswordHasher
}

func NewAuthService(repo AuthorRepository, hasher PasswordHasher) *AuthService {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &AuthService{repo: repo, hasher: hasher}
}

// Authenticate looks up the author by email and checks the password.
// Lookup faults are returned wrapped and never as ErrInvalidCredential.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (types.Author, error) {
	author, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Author{}, ErrUnknownIdentifier
		}
		return types.Author{}, fmt.Errorf("lookup author: %w", err)
	}
	if !s.hasher.Verify(password, author.PasswordHash) {
		return types.Author{}, ErrInvalidCredential
	}
	return author, nil
}

// Serialize reduces an author to the identifier kept in the session.
func (s *AuthService) Serialize(author types.Author) string {
	return author.ID
}

// Deserialize reconstitutes the author behind a session identifier.
func (s *AuthService) Deserialize(ctx context.Context, id string) (types.Author, error) {
	if strings.TrimSpace(id) == "" {
		return types.Author{}, ErrNoIdentifier
	}
	author, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Author{}, ErrUserNotFound
		}
		return types.Author{}, fmt.Errorf("lookup author: %w", err)
	}
	return author, nil
}

// Register provisions a new author with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (types.Author, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.Author{}, errors.New("email and password are required")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.Author{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Author{}, fmt.Errorf("lookup author: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.Author{}, fmt.Errorf("hash password: %w", err)
	}

	author, err := s.repo.Create(ctx, types.Author{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Author{}, ErrEmailTaken
		}
		return types.Author{}, err
	}
	return author, nil
}
