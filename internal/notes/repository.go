package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for notes
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new notes repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const notesWhere = `
		WHERE ($1 = '' OR quote_code = $1)
		  AND ($2 = '' OR customer_code = $2)
		  AND ($3 = '' OR content ILIKE '%' || $3 || '%')
		  AND ($4 = '' OR note_type = $4)`

// ListNotes lists one page of the notes matching f, newest first, and the
// number of matching notes. Search matches the content ignoring case.
func (r *Repository) ListNotes(ctx context.Context, f NoteFilter, limit, offset int) ([]Note, int64, error) {
	args := []interface{}{f.QuoteCode, f.CustomerCode, escapeLike(f.Search), f.Type}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM notes"+notesWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, quote_code, customer_code, content, note_type, author, created_at
		FROM notes`+notesWhere+`
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	items := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.QuoteCode, &n.CustomerCode, &n.Content, &n.Type, &n.Author, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan note: %w", err)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// escapeLike makes user input match literally inside ILIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// CreateNote creates a note
func (r *Repository) CreateNote(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO notes (id, quote_code, customer_code, content, note_type, author)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, n.ID, n.QuoteCode, n.CustomerCode, n.Content, n.Type, n.Author).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// DeleteNote deletes a note
func (r *Repository) DeleteNote(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete note: %w", pgx.ErrNoRows)
	}
	return nil
}
