package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// ProfileFilter narrows the profile review list.
type ProfileFilter struct {
	Status domain.ProfileStatus
	Limit  int
	Offset int
}

// ProfileRepository manages employee profiles.
type ProfileRepository interface {
	Create(ctx context.Context, tx pgx.Tx, profile *domain.Profile) error
	Update(ctx context.Context, tx pgx.Tx, profile *domain.Profile) error
	GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.ProfileWithUser, error)
	GetByUserID(ctx context.Context, tx pgx.Tx, userID string) (*domain.Profile, error)
	List(ctx context.Context, tx pgx.Tx, filter ProfileFilter) ([]domain.ProfileWithUser, error)
	Count(ctx context.Context, tx pgx.Tx, filter ProfileFilter) (int, error)
}

var profileColumns = []string{
	"p.id", "p.user_id", "p.phone_number", "p.address", "p.phone_number_1", "p.phone_number_2",
	"p.national_code", "p.birthdate", "p.national_card", "p.guarantee", "p.status",
	"p.created_at", "p.updated_at",
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository builds the Postgres implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Create(ctx context.Context, tx pgx.Tx, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (user_id, phone_number, address, phone_number_1, phone_number_2,
            national_code, birthdate, national_card, guarantee, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	return querier(r.pool, tx).QueryRow(ctx, query,
		profile.UserID,
		profile.PhoneNumber,
		profile.Address,
		profile.PhoneNumber1,
		profile.PhoneNumber2,
		profile.NationalCode,
		profile.Birthdate,
		profile.NationalCard,
		profile.Guarantee,
		string(profile.Status),
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, tx pgx.Tx, profile *domain.Profile) error {
	const query = `
        UPDATE profiles SET phone_number=$1, address=$2, phone_number_1=$3, phone_number_2=$4,
            national_code=$5, birthdate=$6, national_card=$7, guarantee=$8, status=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	return querier(r.pool, tx).QueryRow(ctx, query,
		profile.PhoneNumber,
		profile.Address,
		profile.PhoneNumber1,
		profile.PhoneNumber2,
		profile.NationalCode,
		profile.Birthdate,
		profile.NationalCard,
		profile.Guarantee,
		string(profile.Status),
		profile.ID,
	).Scan(&profile.UpdatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, tx pgx.Tx, id string) (*domain.ProfileWithUser, error) {
	query, args, err := profileWithUserQuery().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanProfileWithUser(querier(r.pool, tx).QueryRow(ctx, query, args...))
}

func (r *profileRepository) GetByUserID(ctx context.Context, tx pgx.Tx, userID string) (*domain.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("profiles p").
		Where(sq.Eq{"p.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var profile domain.Profile
	if err := querier(r.pool, tx).QueryRow(ctx, query, args...).Scan(profileDest(&profile)...); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context, tx pgx.Tx, filter ProfileFilter) ([]domain.ProfileWithUser, error) {
	limit, offset := page(filter.Limit, filter.Offset)
	query, args, err := applyProfileFilter(profileWithUserQuery(), filter).
		OrderBy("p.created_at DESC", "p.id DESC").
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

	var result []domain.ProfileWithUser
	for rows.Next() {
		item, err := scanProfileWithUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *profileRepository) Count(ctx context.Context, tx pgx.Tx, filter ProfileFilter) (int, error) {
	query, args, err := applyProfileFilter(psql.Select("COUNT(*)").From("profiles p"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	err = querier(r.pool, tx).QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func profileWithUserQuery() sq.SelectBuilder {
	return psql.Select(append(append([]string{}, profileColumns...), userColumns...)...).
		From("profiles p").
		Join("users u ON u.id = p.user_id")
}

func applyProfileFilter(q sq.SelectBuilder, filter ProfileFilter) sq.SelectBuilder {
	if filter.Status != "" {
		q = q.Where(sq.Eq{"p.status": string(filter.Status)})
	}
	return q
}

func profileDest(p *domain.Profile) []any {
	return []any{
		&p.ID,
		&p.UserID,
		&p.PhoneNumber,
		&p.Address,
		&p.PhoneNumber1,
		&p.PhoneNumber2,
		&p.NationalCode,
		&p.Birthdate,
		&p.NationalCard,
		&p.Guarantee,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func userDest(u *domain.User) []any {
	return []any{
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.ManagerID,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

func scanProfileWithUser(row pgx.Row) (*domain.ProfileWithUser, error) {
	var item domain.ProfileWithUser
	dest := append(profileDest(&item.Profile), userDest(&item.User)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &item, nil
}
