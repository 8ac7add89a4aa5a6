package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkpost/blogapi/types"
)

// CommentRepository handles persistence for comments.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, content, author_name, post_id, author_id, created_at`

// ListByPost returns the comments of a post, newest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]types.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepository) Get(ctx context.Context, id string) (types.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Comment{}, ErrNotFound
	}
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, ErrNotFound
		}
		return types.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()

	var authorID sql.NullString
	if comment.AuthorID != nil {
		authorID = sql.NullString{String: *comment.AuthorID, Valid: true}
	}

	const query = `
		INSERT INTO comments (id, content, author_name, post_id, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.Content,
		comment.AuthorName,
		comment.PostID,
		authorID,
		comment.CreatedAt,
	); err != nil {
		return types.Comment{}, mapWriteError(err)
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(row rowScanner) (types.Comment, error) {
	var comment types.Comment
	var authorID sql.NullString
	if err := row.Scan(
		&comment.ID,
		&comment.Content,
		&comment.AuthorName,
		&comment.PostID,
		&authorID,
		&comment.CreatedAt,
	); err != nil {
		return types.Comment{}, err
	}
	if authorID.Valid {
		id := authorID.String
		comment.AuthorID = &id
	}
	return comment, nil
}
