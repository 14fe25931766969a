package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

const userColumns = `id::text, user_name, email, COALESCE(phone_number, ''), password_hash, role, verified, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "user").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (user_name, email, phone_number, password_hash, role)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
RETURNING id::text, created_at
`
	out := u
	err := r.pool.QueryRow(ctx, q, u.UserName, u.Email, u.PhoneNumber, u.PasswordHash, u.Role).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Info().Str("user_id", out.ID).Str("email", out.Email).Msg("user created")
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetch(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetch(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.UserName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Role, &u.Verified, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *postgresRepo) SetVerified(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET verified = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddAddress(ctx context.Context, a domain.Address) (*domain.Address, error) {
	const q = `
INSERT INTO addresses (user_id, customer_name, phone_number, street, province_id, district_id, ward_id, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text
`
	out := a
	err := r.pool.QueryRow(ctx, q, a.UserID, a.CustomerName, a.PhoneNumber, a.Street, a.ProvinceID, a.DistrictID, a.WardID, a.Default).
		Scan(&out.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	const q = `
SELECT id::text, user_id::text, customer_name, phone_number, street, province_id, district_id, ward_id, is_default
FROM addresses
WHERE user_id = $1
ORDER BY is_default DESC, id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.CustomerName, &a.PhoneNumber, &a.Street, &a.ProvinceID, &a.DistrictID, &a.WardID, &a.Default); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) DeleteAddress(ctx context.Context, userID, addressID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetch(ctx context.Context, q string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, q, args...).
		Scan(&u.ID, &u.UserName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Role, &u.Verified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
