package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

// productColumns selects a product with its newest price-history row.
const productColumns = `
SELECT p.id::text, p.name, COALESCE(p.description, ''), COALESCE(p.image_url, ''),
       p.subcategory_id::text, COALESCE(p.publisher_id::text, ''),
       ph.id::text, ph.old_price, ph.new_price, ph.effective_at,
       p.created_at
FROM products p
LEFT JOIN LATERAL (
	SELECT id, old_price, new_price, effective_at
	FROM price_histories
	WHERE product_id = p.id
	ORDER BY effective_at DESC, id DESC
	LIMIT 1
) ph ON true
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "product").Logger()}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` ORDER BY p.created_at DESC`)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	rows, err := r.queryProducts(ctx, productColumns+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

func (r *postgresRepo) ListBySubCategory(ctx context.Context, subCategoryID string) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` WHERE p.subcategory_id = $1 ORDER BY p.created_at DESC`, subCategoryID)
}

func (r *postgresRepo) SearchByName(ctx context.Context, query string) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` WHERE p.name ILIKE '%' || $1 || '%' ORDER BY p.name ASC`, query)
}

func (r *postgresRepo) SearchByPrice(ctx context.Context, minPrice, maxPrice int64) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` WHERE ph.new_price BETWEEN $1 AND $2 ORDER BY ph.new_price ASC`, minPrice, maxPrice)
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product, price int64) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO products (name, description, image_url, subcategory_id, publisher_id)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, '')::uuid)
RETURNING id::text, created_at
`
	var created domain.Product
	if err := tx.QueryRow(ctx, q, p.Name, p.Description, p.ImageURL, p.SubCategoryID, p.PublisherID).
		Scan(&created.ID, &created.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("name", p.Name).Msg("create product")
		return nil, err
	}

	const priceQ = `
INSERT INTO price_histories (product_id, old_price, new_price)
VALUES ($1, 0, $2)
RETURNING id::text, product_id::text, old_price, new_price, effective_at
`
	var ph domain.PriceHistory
	if err := tx.QueryRow(ctx, priceQ, created.ID, price).
		Scan(&ph.ID, &ph.ProductID, &ph.OldPrice, &ph.NewPrice, &ph.EffectiveAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	created.Name = p.Name
	created.Description = p.Description
	created.ImageURL = p.ImageURL
	created.SubCategoryID = p.SubCategoryID
	created.PublisherID = p.PublisherID
	created.CurrentPrice = &ph
	r.logger.Info().Str("product_id", created.ID).Str("name", created.Name).Msg("product created")
	return &created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET name = $2,
    description = NULLIF($3, ''),
    image_url = NULLIF($4, ''),
    subcategory_id = $5,
    publisher_id = NULLIF($6, '')::uuid
WHERE id = $1
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.ImageURL, p.SubCategoryID, p.PublisherID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("update product")
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendPrice records a price change. The previous current price becomes
// the row's old price so the history reads as a chain.
func (r *postgresRepo) AppendPrice(ctx context.Context, productID string, newPrice int64) (*domain.PriceHistory, error) {
	const q = `
INSERT INTO price_histories (product_id, old_price, new_price)
SELECT $1, COALESCE((
	SELECT new_price FROM price_histories
	WHERE product_id = $1
	ORDER BY effective_at DESC, id DESC
	LIMIT 1
), 0), $2
RETURNING id::text, product_id::text, old_price, new_price, effective_at
`
	var ph domain.PriceHistory
	if err := r.pool.QueryRow(ctx, q, productID, newPrice).
		Scan(&ph.ID, &ph.ProductID, &ph.OldPrice, &ph.NewPrice, &ph.EffectiveAt); err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("append price")
		return nil, err
	}
	return &ph, nil
}

func (r *postgresRepo) PriceHistories(ctx context.Context, productID string) ([]domain.PriceHistory, error) {
	const q = `
SELECT id::text, product_id::text, old_price, new_price, effective_at
FROM price_histories
WHERE product_id = $1
ORDER BY effective_at DESC, id DESC
`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PriceHistory
	for rows.Next() {
		var ph domain.PriceHistory
		if err := rows.Scan(&ph.ID, &ph.ProductID, &ph.OldPrice, &ph.NewPrice, &ph.EffectiveAt); err != nil {
			return nil, err
		}
		result = append(result, ph)
	}
	return result, rows.Err()
}

func (r *postgresRepo) queryProducts(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var (
			p           domain.Product
			phID        *string
			oldPrice    *int64
			newPrice    *int64
			effectiveAt *time.Time
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.SubCategoryID, &p.PublisherID,
			&phID, &oldPrice, &newPrice, &effectiveAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if phID != nil && newPrice != nil {
			ph := domain.PriceHistory{ID: *phID, ProductID: p.ID, NewPrice: *newPrice}
			if oldPrice != nil {
				ph.OldPrice = *oldPrice
			}
			if effectiveAt != nil {
				ph.EffectiveAt = *effectiveAt
			}
			p.CurrentPrice = &ph
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
