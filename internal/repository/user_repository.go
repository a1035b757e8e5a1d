package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// UserFilter holds the caller-supplied user search parameters. Every field is
// optional and only ever narrows the scoped result.
type UserFilter struct {
	FullName string
	Username string
	Role     domain.Role
	IDs      []string
	Limit    int
	Offset   int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	Update(ctx context.Context, tx pgx.Tx, user *domain.User) error
	Delete(ctx context.Context, tx pgx.Tx, id string) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, tx pgx.Tx, username string) (*domain.User, error)
	List(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter UserFilter) ([]domain.User, error)
	Count(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter UserFilter) (int, error)
	DetachEmployees(ctx context.Context, tx pgx.Tx, managerID string) error
}

var userColumns = []string{
	"u.id", "u.username", "u.password_hash", "u.first_name", "u.last_name",
	"u.role", "u.manager_id::text", "u.created_at", "u.updated_at",
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, first_name, last_name, role, manager_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return querier(r.pool, tx).QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.ManagerID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, tx pgx.Tx, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, password_hash=$2, first_name=$3, last_name=$4,
            role=$5, manager_id=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	return querier(r.pool, tx).QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.ManagerID,
		user.ID,
	).Scan(&user.UpdatedAt)
}

func (r *userRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectRows(tag)
}

func (r *userRepository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.User, error) {
	return r.findOne(ctx, tx, sq.Eq{"u.id": id})
}

func (r *userRepository) GetByUsername(ctx context.Context, tx pgx.Tx, username string) (*domain.User, error) {
	return r.findOne(ctx, tx, sq.Eq{"u.username": username})
}

func (r *userRepository) findOne(ctx context.Context, tx pgx.Tx, where sq.Eq) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).From("users u").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(querier(r.pool, tx).QueryRow(ctx, query, args...))
}

func (r *userRepository) List(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter UserFilter) ([]domain.User, error) {
	limit, offset := page(filter.Limit, filter.Offset)
	query, args, err := BuildUserListQuery(scope, filter).
		OrderBy("u.created_at DESC", "u.id DESC").
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

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Count(ctx context.Context, tx pgx.Tx, scope sq.Sqlizer, filter UserFilter) (int, error) {
	query, args, err := BuildUserListQuery(scope, filter).
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

func (r *userRepository) DetachEmployees(ctx context.Context, tx pgx.Tx, managerID string) error {
	_, err := querier(r.pool, tx).Exec(ctx,
		`UPDATE users SET manager_id=NULL, updated_at=NOW() WHERE manager_id=$1`, managerID)
	return err
}

// BuildUserListQuery applies scope first and then the optional filters.
func BuildUserListQuery(scope sq.Sqlizer, filter UserFilter) sq.SelectBuilder {
	q := psql.Select(userColumns...).
		From("users u").
		LeftJoin("profiles p ON p.user_id = u.id").
		Where(scopeOrNone(scope))

	if term := strings.TrimSpace(filter.FullName); term != "" {
		pattern := "%" + term + "%"
		q = q.Where(sq.Or{
			sq.ILike{"u.first_name": pattern},
			sq.ILike{"u.last_name": pattern},
			sq.Expr("(u.first_name || ' ' || u.last_name) ILIKE ?", pattern),
		})
	}
	if term := strings.TrimSpace(filter.Username); term != "" {
		q = q.Where(sq.ILike{"u.username": "%" + term + "%"})
	}
	if filter.Role != "" {
		q = q.Where(sq.Eq{"u.role": string(filter.Role)})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(sq.Eq{"u.id": filter.IDs})
	}
	return q
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(userDest(&user)...); err != nil {
		return nil, err
	}
	return &user, nil
}
