package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// ActivityFilter holds the optional activity search parameters.
type ActivityFilter struct {
	Query       string
	IsCompleted *bool
	Visibility  *bool
	Limit       int
	Offset      int
}

// ActivityRepository encapsulates activity persistence.
type ActivityRepository interface {
	Create(ctx context.Context, tx pgx.Tx, activity *domain.Activity) error
	Update(ctx context.Context, tx pgx.Tx, activity *domain.Activity) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.ActivityWithUsers, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id string, at time.Time) (bool, error)
	List(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter ActivityFilter) ([]domain.ActivityWithUsers, error)
	Count(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter ActivityFilter) (int, error)
}

var activityColumns = []string{
	"a.id", "a.user_id", "a.creator_id", "a.title", "a.body",
	"a.start_date", "to_char(a.start_time, 'HH24:MI:SS')",
	"a.end_date", "to_char(a.end_time, 'HH24:MI:SS')",
	"a.sensitivity", "a.is_completed", "a.visibility", "a.completed_at",
	"a.created_at", "a.updated_at",
	"au.id", "au.username", "au.first_name", "au.last_name", "au.role", "au.manager_id::text",
	"cu.id", "cu.username", "cu.first_name", "cu.last_name", "cu.role",
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, tx pgx.Tx, activity *domain.Activity) error {
	query, args, err := psql.Insert("activities").
		Columns("user_id", "creator_id", "title", "body", "start_date", "start_time",
			"end_date", "end_time", "sensitivity", "is_completed", "visibility").
		Values(
			activity.UserID,
			activity.CreatorID,
			activity.Title,
			activity.Body,
			activity.StartDate,
			sq.Expr("?::time", activity.StartTime.String()),
			activity.EndDate,
			sq.Expr("?::time", activity.EndTime.String()),
			string(activity.Sensitivity),
			activity.IsCompleted,
			activity.Visibility,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	return querier(r.pool, tx).QueryRow(ctx, query, args...).
		Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *activityRepository) Update(ctx context.Context, tx pgx.Tx, activity *domain.Activity) error {
	query, args, err := psql.Update("activities").
		Set("title", activity.Title).
		Set("body", activity.Body).
		Set("start_date", activity.StartDate).
		Set("start_time", sq.Expr("?::time", activity.StartTime.String())).
		Set("end_date", activity.EndDate).
		Set("end_time", sq.Expr("?::time", activity.EndTime.String())).
		Set("sensitivity", string(activity.Sensitivity)).
		Set("is_completed", activity.IsCompleted).
		Set("completed_at", activity.CompletedAt).
		Set("visibility", activity.Visibility).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": activity.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return err
	}
	return querier(r.pool, tx).QueryRow(ctx, query, args...).Scan(&activity.UpdatedAt)
}

func (r *activityRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRows(tag)
}

func (r *activityRepository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.ActivityWithUsers, error) {
	query, args, err := activityBaseQuery().Where(sq.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanActivity(querier(r.pool, tx).QueryRow(ctx, query, args...))
}

// MarkCompleted flips is_completed once; false means it was already set or the row is gone.
func (r *activityRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE activities SET is_completed=TRUE, completed_at=$2, updated_at=NOW()
        WHERE id=$1 AND is_completed=FALSE`
	tag, err := querier(r.pool, tx).Exec(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *activityRepository) List(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter ActivityFilter) ([]domain.ActivityWithUsers, error) {
	limit, offset := page(filter.Limit, filter.Offset)
	query, args, err := BuildActivityListQuery(scope, filter).
		OrderBy("a.created_at DESC", "a.id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querier(r.pool, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityWithUsers
	for rows.Next() {
		item, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *activityRepository) Count(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter ActivityFilter) (int, error) {
	query, args, err := BuildActivityListQuery(scope, filter).
		RemoveColumns().
		Column("COUNT(*)").
		ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	err = querier(r.pool, tx).QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// BuildActivityListQuery applies scope first and then the optional filters.
func BuildActivityListQuery(scope sq.Sqlizer, filter ActivityFilter) sq.SelectBuilder {
	q := activityBaseQuery().Where(scopeOrNone(scope))

	if term := strings.TrimSpace(filter.Query); term != "" {
		q = q.Where(sq.ILike{"a.title": "%" + term + "%"})
	}
	if filter.IsCompleted != nil {
		q = q.Where(sq.Eq{"a.is_completed": *filter.IsCompleted})
	}
	if filter.Visibility != nil {
		q = q.Where(sq.Eq{"a.visibility": *filter.Visibility})
	}
	return q
}

func activityBaseQuery() sq.SelectBuilder {
	return psql.Select(activityColumns...).
		From("activities a").
		Join("users au ON au.id = a.user_id").
		Join("users cu ON cu.id = a.creator_id").
		LeftJoin("profiles ap ON ap.user_id = a.user_id")
}

func scanActivity(row pgx.Row) (*domain.ActivityWithUsers, error) {
	var (
		item      domain.ActivityWithUsers
		startTime string
		endTime   string
	)
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.CreatorID,
		&item.Title,
		&item.Body,
		&item.StartDate,
		&startTime,
		&item.EndDate,
		&endTime,
		&item.Sensitivity,
		&item.IsCompleted,
		&item.Visibility,
		&item.CompletedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Assignee.ID,
		&item.Assignee.Username,
		&item.Assignee.FirstName,
		&item.Assignee.LastName,
		&item.Assignee.Role,
		&item.Assignee.ManagerID,
		&item.Creator.ID,
		&item.Creator.Username,
		&item.Creator.FirstName,
		&item.Creator.LastName,
		&item.Creator.Role,
	); err != nil {
		return nil, err
	}

	var err error
	if item.StartTime, err = domain.ParseClockTime(startTime); err != nil {
		return nil, fmt.Errorf("activity %s start_time: %w", item.ID, err)
	}
	if item.EndTime, err = domain.ParseClockTime(endTime); err != nil {
		return nil, fmt.Errorf("activity %s end_time: %w", item.ID, err)
	}
	return &item, nil
}
