package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// CommentFilter selects the comments of one ticket.
type CommentFilter struct {
	TicketID       string
	IncludeDeleted bool
}

// CommentRepository manages ticket comments. GetByID never returns soft-deleted rows.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	List(ctx context.Context, filter CommentFilter) ([]domain.Comment, error)
}

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
        SELECT c.id, c.ticket_id, c.author_id, u.email, c.content, c.created_at, c.deleted
        FROM comments c
        JOIN users u ON u.id = c.author_id`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (id, ticket_id, author_id, content, created_at, deleted)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.Author.ID,
		comment.Content,
		comment.CreatedAt,
		comment.Deleted,
	)
	return missingParent(err)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	const query = `UPDATE comments SET content=$1, deleted=$2 WHERE id=$3`
	return requireAffected(r.db.Exec(ctx, query, comment.Content, comment.Deleted, comment.ID))
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	comment, err := scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id=$1 AND c.deleted=FALSE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return comment, nil
}

func (r *commentRepository) List(ctx context.Context, filter CommentFilter) ([]domain.Comment, error) {
	where := "c.ticket_id=$1"
	if !filter.IncludeDeleted {
		where += " AND c.deleted=FALSE"
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf("%s WHERE %s ORDER BY c.seq ASC", commentSelect, where), filter.TicketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.Author.ID,
		&comment.Author.Email,
		&comment.Content,
		&comment.CreatedAt,
		&comment.Deleted,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
