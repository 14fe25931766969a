package importer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWriter writes imported rows with the same upsert semantics the
// seeder uses: stable natural keys, price history appended only on change.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

func (w *PostgresWriter) EnsureCategory(ctx context.Context, name string) (string, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	err := w.pool.QueryRow(ctx, q, name).Scan(&id)
	return id, err
}

func (w *PostgresWriter) EnsureSubCategory(ctx context.Context, categoryID, name string) (string, error) {
	const q = `
INSERT INTO subcategories (category_id, name)
VALUES ($1, $2)
ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	err := w.pool.QueryRow(ctx, q, categoryID, name).Scan(&id)
	return id, err
}

func (w *PostgresWriter) EnsurePublisher(ctx context.Context, name string) (string, error) {
	const q = `
INSERT INTO publishers (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	err := w.pool.QueryRow(ctx, q, name).Scan(&id)
	return id, err
}

func (w *PostgresWriter) UpsertProduct(ctx context.Context, p ProductRow, subCategoryID, publisherID string) error {
	const insert = `
INSERT INTO products (name, description, image_url, subcategory_id, publisher_id)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, '')::uuid)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description,
    image_url = EXCLUDED.image_url,
    subcategory_id = EXCLUDED.subcategory_id,
    publisher_id = EXCLUDED.publisher_id
RETURNING id::text
`
	var id string
	if err := w.pool.QueryRow(ctx, insert, p.Name, p.Description, p.ImageURL, subCategoryID, publisherID).Scan(&id); err != nil {
		return err
	}

	const price = `
INSERT INTO price_histories (product_id, old_price, new_price)
SELECT $1, COALESCE((
	SELECT new_price FROM price_histories
	WHERE product_id = $1
	ORDER BY effective_at DESC, id DESC
	LIMIT 1
), 0), $2
WHERE COALESCE((
	SELECT new_price FROM price_histories
	WHERE product_id = $1
	ORDER BY effective_at DESC, id DESC
	LIMIT 1
), 0) <> $2
`
	_, err := w.pool.Exec(ctx, price, id, p.Price)
	return err
}
