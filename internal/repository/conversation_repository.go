package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// ConversationFilter pages ticket listings.
type ConversationFilter struct {
	Limit  int
	Offset int
}

// ConversationRepository manages ticket threads and their participants.
type ConversationRepository interface {
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.Conversation, error)
	FindByPairKey(ctx context.Context, tx pgx.Tx, pairKey string) (*domain.Conversation, error)
	FindExactPair(ctx context.Context, tx pgx.Tx, a, b string) (*domain.Conversation, error)
	ClaimPairKey(ctx context.Context, tx pgx.Tx, id, pairKey string) (bool, error)
	InsertPair(ctx context.Context, tx pgx.Tx, pairKey string) (*domain.Conversation, bool, error)
	AddParticipants(ctx context.Context, tx pgx.Tx, conversationID string, userIDs ...string) error
	ListSummaries(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, viewerID string, filter ConversationFilter) ([]domain.ConversationSummary, error)
	UnseenCount(ctx context.Context, tx pgx.Tx, userID string) (int, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository builds the Postgres implementation.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.Conversation, error) {
	return r.findOne(ctx, tx, sq.Eq{"c.id": id})
}

func (r *conversationRepository) FindByPairKey(ctx context.Context, tx pgx.Tx, pairKey string) (*domain.Conversation, error) {
	return r.findOne(ctx, tx, sq.Eq{"c.pair_key": pairKey})
}

func (r *conversationRepository) findOne(ctx context.Context, tx pgx.Tx, where sq.Sqlizer) (*domain.Conversation, error) {
	query, args, err := psql.Select("c.id", "c.pair_key", "c.created_at").
		From("conversations c").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	q := querier(r.pool, tx)
	var conversation domain.Conversation
	if err := q.QueryRow(ctx, query, args...).Scan(&conversation.ID, &conversation.PairKey, &conversation.CreatedAt); err != nil {
		return nil, err
	}
	participants, err := loadParticipants(ctx, q, []string{conversation.ID})
	if err != nil {
		return nil, err
	}
	conversation.Participants = participants[conversation.ID]
	return &conversation, nil
}

// FindExactPair finds the oldest conversation whose participant set is exactly {a, b}.
func (r *conversationRepository) FindExactPair(ctx context.Context, tx pgx.Tx, a, b string) (*domain.Conversation, error) {
	const query = `
        SELECT c.id, c.pair_key, c.created_at
        FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id
        GROUP BY c.id, c.pair_key, c.created_at
        HAVING COUNT(*) = 2
           AND COUNT(*) FILTER (WHERE cp.user_id IN ($1, $2)) = 2
        ORDER BY c.created_at ASC
        LIMIT 1`

	q := querier(r.pool, tx)
	var conversation domain.Conversation
	if err := q.QueryRow(ctx, query, a, b).Scan(&conversation.ID, &conversation.PairKey, &conversation.CreatedAt); err != nil {
		return nil, err
	}
	participants, err := loadParticipants(ctx, q, []string{conversation.ID})
	if err != nil {
		return nil, err
	}
	conversation.Participants = participants[conversation.ID]
	return &conversation, nil
}

// ClaimPairKey stamps a legacy two-party conversation with its canonical key
// unless another conversation already holds it.
func (r *conversationRepository) ClaimPairKey(ctx context.Context, tx pgx.Tx, id, pairKey string) (bool, error) {
	const query = `
        UPDATE conversations SET pair_key=$2
        WHERE id=$1 AND pair_key IS NULL
          AND NOT EXISTS (SELECT 1 FROM conversations WHERE pair_key=$2)`
	tag, err := querier(r.pool, tx).Exec(ctx, query, id, pairKey)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertPair creates a conversation for pairKey. The boolean is false when
// another writer already holds the key; the caller then re-reads by key.
func (r *conversationRepository) InsertPair(ctx context.Context, tx pgx.Tx, pairKey string) (*domain.Conversation, bool, error) {
	const query = `
        INSERT INTO conversations (pair_key) VALUES ($1)
        ON CONFLICT (pair_key) DO NOTHING
        RETURNING id, pair_key, created_at`

	var conversation domain.Conversation
	err := querier(r.pool, tx).QueryRow(ctx, query, pairKey).
		Scan(&conversation.ID, &conversation.PairKey, &conversation.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &conversation, true, nil
}

func (r *conversationRepository) AddParticipants(ctx context.Context, tx pgx.Tx, conversationID string, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	insert := psql.Insert("conversation_participants").Columns("conversation_id", "user_id")
	for _, userID := range userIDs {
		insert = insert.Values(conversationID, userID)
	}
	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	_, err = querier(r.pool, tx).Exec(ctx, query, args...)
	return err
}

func (r *conversationRepository) ListSummaries(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, viewerID string, filter ConversationFilter) ([]domain.ConversationSummary, error) {
	limit, offset := page(filter.Limit, filter.Offset)
	query, args, err := BuildConversationListQuery(scope, viewerID).
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, err
	}

	q := querier(r.pool, tx)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []domain.ConversationSummary
		ids    []string
	)
	for rows.Next() {
		var (
			item   domain.ConversationSummary
			lastAt *time.Time
		)
		if err := rows.Scan(&item.ID, &item.PairKey, &item.CreatedAt, &item.UnseenCount, &lastAt); err != nil {
			return nil, err
		}
		item.LastMessageAt = lastAt
		result = append(result, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return result, nil
	}
	participants, err := loadParticipants(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Participants = participants[result[i].ID]
	}
	return result, nil
}

func (r *conversationRepository) UnseenCount(ctx context.Context, tx pgx.Tx, userID string) (int, error) {
	const query = `
        SELECT COUNT(*)
        FROM messages m
        JOIN conversation_participants cp ON cp.conversation_id = m.conversation_id AND cp.user_id = $1
        WHERE m.seen = FALSE AND m.user_id <> $1`
	var total int
	err := querier(r.pool, tx).QueryRow(ctx, query, userID).Scan(&total)
	return total, err
}

// BuildConversationListQuery selects scoped conversations with the viewer's
// unseen message count, most recently active first.
func BuildConversationListQuery(scope sq.Sqlizer, viewerID string) sq.SelectBuilder {
	return psql.Select("c.id", "c.pair_key", "c.created_at").
		Column(sq.Expr("COUNT(m.id) FILTER (WHERE m.seen = FALSE AND m.user_id <> ?)", viewerID)).
		Column("MAX(m.created_at)").
		From("conversations c").
		LeftJoin("messages m ON m.conversation_id = c.id").
		Where(scopeOrNone(scope)).
		GroupBy("c.id", "c.pair_key", "c.created_at").
		OrderBy("MAX(m.created_at) DESC NULLS LAST", "c.created_at DESC")
}

func loadParticipants(ctx context.Context, q Querier, conversationIDs []string) (map[string][]domain.User, error) {
	query, args, err := psql.Select("cp.conversation_id", "u.id", "u.username", "u.first_name", "u.last_name", "u.role").
		From("conversation_participants cp").
		Join("users u ON u.id = cp.user_id").
		Where(sq.Eq{"cp.conversation_id": conversationIDs}).
		OrderBy("u.username").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.User, len(conversationIDs))
	for rows.Next() {
		var (
			conversationID string
			user           domain.User
		)
		if err := rows.Scan(&conversationID, &user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Role); err != nil {
			return nil, err
		}
		result[conversationID] = append(result[conversationID], user)
	}
	return result, rows.Err()
}
