package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkpost/blogapi/types"
)

// AuthorRepository handles persistence for authors.
type AuthorRepository struct {
	db *sql.DB
}

func NewAuthorRepository(db *sql.DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

const authorColumns = `id, email, name, password_hash, created_at, updated_at`

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (types.Author, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Author{}, ErrNotFound
	}
	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`
	return scanAuthor(r.db.QueryRowContext(ctx, query, id))
}

func (r *AuthorRepository) GetByEmail(ctx context.Context, email string) (types.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE lower(email) = lower($1)`
	return scanAuthor(r.db.QueryRowContext(ctx, query, email))
}

func (r *AuthorRepository) Create(ctx context.Context, author types.Author) (types.Author, error) {
	now := time.Now().UTC()
	author.ID = uuid.NewString()
	author.CreatedAt = now
	author.UpdatedAt = now

	const query = `
		INSERT INTO authors (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		author.ID,
		author.Email,
		author.Name,
		author.PasswordHash,
		author.CreatedAt,
		author.UpdatedAt,
	); err != nil {
		return types.Author{}, mapWriteError(err)
	}
	return author, nil
}

func scanAuthor(row *sql.Row) (types.Author, error) {
	var author types.Author
	err := row.Scan(
		&author.ID,
		&author.Email,
		&author.Name,
		&author.PasswordHash,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Author{}, ErrNotFound
		}
		return types.Author{}, err
	}
	return author, nil
}
