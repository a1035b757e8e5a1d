package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// MessageRepository persists chat messages.
type MessageRepository interface {
	Create(ctx context.Context, tx pgx.Tx, message *domain.Message) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.Message, error)
	UpdateBody(ctx context.Context, tx pgx.Tx, id, body string) (*domain.Message, error)
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	// ListLatest returns the newest limit messages in ascending order.
	ListLatest(ctx context.Context, tx pgx.Tx, conversationID string, limit int) ([]domain.Message, bool, error)
	// ListAfter returns messages newer than the cursor message, oldest first.
	ListAfter(ctx context.Context, tx pgx.Tx, conversationID, afterID string, limit int) ([]domain.Message, bool, error)
	// ListBefore returns messages older than the cursor message, oldest first.
	ListBefore(ctx context.Context, tx pgx.Tx, conversationID, beforeID string, limit int) ([]domain.Message, bool, error)
	MarkSeen(ctx context.Context, tx pgx.Tx, conversationID, viewerID string) (int64, error)
}

var messageColumns = []string{
	"m.id", "m.conversation_id", "m.user_id", "m.body", "m.seen", "m.created_at", "m.updated_at",
	"u.id", "u.username", "u.first_name", "u.last_name", "u.role",
}

const cursorOf = "(SELECT created_at, id FROM messages WHERE id = ?)"

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository constructs a Postgres-backed message repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, tx pgx.Tx, message *domain.Message) error {
	const query = `
        INSERT INTO messages (conversation_id, user_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, seen, created_at, updated_at`

	return querier(r.pool, tx).QueryRow(ctx, query,
		message.ConversationID,
		message.UserID,
		message.Body,
	).Scan(&message.ID, &message.Seen, &message.CreatedAt, &message.UpdatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.Message, error) {
	query, args, err := messageBaseQuery().Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanMessage(querier(r.pool, tx).QueryRow(ctx, query, args...))
}

func (r *messageRepository) UpdateBody(ctx context.Context, tx pgx.Tx, id, body string) (*domain.Message, error) {
	tag, err := querier(r.pool, tx).Exec(ctx,
		`UPDATE messages SET body=$2, updated_at=NOW() WHERE id=$1`, id, body)
	if err != nil {
		return nil, err
	}
	if err := expectRows(tag); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tx, id)
}

func (r *messageRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRows(tag)
}

func (r *messageRepository) ListLatest(ctx context.Context, tx pgx.Tx, conversationID string, limit int) ([]domain.Message, bool, error) {
	q := messageBaseQuery().
		Where(sq.Eq{"m.conversation_id": conversationID}).
		OrderBy("m.created_at DESC", "m.id DESC")
	messages, more, err := r.window(ctx, tx, q, limit)
	if err != nil {
		return nil, false, err
	}
	reverse(messages)
	return messages, more, nil
}

func (r *messageRepository) ListAfter(ctx context.Context, tx pgx.Tx, conversationID, afterID string, limit int) ([]domain.Message, bool, error) {
	q := messageBaseQuery().
		Where(sq.Eq{"m.conversation_id": conversationID}).
		Where(sq.Expr("(m.created_at, m.id) > "+cursorOf, afterID)).
		OrderBy("m.created_at ASC", "m.id ASC")
	return r.window(ctx, tx, q, limit)
}

func (r *messageRepository) ListBefore(ctx context.Context, tx pgx.Tx, conversationID, beforeID string, limit int) ([]domain.Message, bool, error) {
	q := messageBaseQuery().
		Where(sq.Eq{"m.conversation_id": conversationID}).
		Where(sq.Expr("(m.created_at, m.id) < "+cursorOf, beforeID)).
		OrderBy("m.created_at DESC", "m.id DESC")
	messages, more, err := r.window(ctx, tx, q, limit)
	if err != nil {
		return nil, false, err
	}
	reverse(messages)
	return messages, more, nil
}

// MarkSeen flags every message in the conversation not written by viewerID.
func (r *messageRepository) MarkSeen(ctx context.Context, tx pgx.Tx, conversationID, viewerID string) (int64, error) {
	tag, err := querier(r.pool, tx).Exec(ctx,
		`UPDATE messages SET seen=TRUE WHERE conversation_id=$1 AND user_id<>$2 AND seen=FALSE`,
		conversationID, viewerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// window fetches one row past limit to report whether more remain.
func (r *messageRepository) window(ctx context.Context, tx pgx.Tx, q sq.SelectBuilder, limit int) ([]domain.Message, bool, error) {
	if limit <= 0 {
		limit = DefaultMessagePage
	}
	query, args, err := q.Limit(uint64(limit + 1)).ToSql()
	if err != nil {
		return nil, false, err
	}

	rows, err := querier(r.pool, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, false, err
		}
		result = append(result, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	more := len(result) > limit
	if more {
		result = result[:limit]
	}
	return result, more, nil
}

func messageBaseQuery() sq.SelectBuilder {
	return psql.Select(messageColumns...).
		From("messages m").
		Join("users u ON u.id = m.user_id")
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		message domain.Message
		author  domain.User
	)
	if err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.UserID,
		&message.Body,
		&message.Seen,
		&message.CreatedAt,
		&message.UpdatedAt,
		&author.ID,
		&author.Username,
		&author.FirstName,
		&author.LastName,
		&author.Role,
	); err != nil {
		return nil, err
	}
	message.Author = &author
	return &message, nil
}

func reverse(messages []domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
