package category

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "category").Logger()}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, COALESCE(description, ''), created_at
FROM categories
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		subs, err := r.ListSubCategories(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].SubCategories = subs
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const q = `
SELECT id::text, name, COALESCE(description, ''), created_at
FROM categories
WHERE id = $1
`
	var c domain.Category
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	subs, err := r.ListSubCategories(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.SubCategories = subs
	return &c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description)
VALUES ($1, NULLIF($2, ''))
RETURNING id::text, created_at
`
	out := c
	if err := r.pool.QueryRow(ctx, q, c.Name, c.Description).Scan(&out.ID, &out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Info().Str("category_id", out.ID).Str("name", out.Name).Msg("category created")
	return &out, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
UPDATE categories
SET name = $2, description = NULLIF($3, '')
WHERE id = $1
RETURNING id::text, created_at
`
	out := c
	if err := r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Description).Scan(&out.ID, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	const q = `
SELECT id::text, category_id::text, name, created_at
FROM subcategories
WHERE category_id = $1
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubCategory
	for rows.Next() {
		var sc domain.SubCategory
		if err := rows.Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetSubCategory(ctx context.Context, id string) (*domain.SubCategory, error) {
	const q = `
SELECT id::text, category_id::text, name, created_at
FROM subcategories
WHERE id = $1
`
	var sc domain.SubCategory
	err := r.pool.QueryRow(ctx, q, id).Scan(&sc.ID, &sc.CategoryID, &sc.Name, &sc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

func (r *postgresRepo) CreateSubCategory(ctx context.Context, sc domain.SubCategory) (*domain.SubCategory, error) {
	const q = `
INSERT INTO subcategories (category_id, name)
VALUES ($1, $2)
RETURNING id::text, created_at
`
	out := sc
	if err := r.pool.QueryRow(ctx, q, sc.CategoryID, sc.Name).Scan(&out.ID, &out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Info().Str("subcategory_id", out.ID).Str("name", out.Name).Msg("subcategory created")
	return &out, nil
}

func (r *postgresRepo) UpdateSubCategory(ctx context.Context, sc domain.SubCategory) (*domain.SubCategory, error) {
	const q = `
UPDATE subcategories
SET name = $2
WHERE id = $1
RETURNING id::text, category_id::text, created_at
`
	out := sc
	if err := r.pool.QueryRow(ctx, q, sc.ID, sc.Name).Scan(&out.ID, &out.CategoryID, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) DeleteSubCategory(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
