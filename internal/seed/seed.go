package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type productSeed struct {
	Name        string
	Description string
	ImageURL    string
	SubCategory string
	Publisher   string
	Price       int64
}

// Apply inserts demo data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureAdmin(ctx, pool, "admin@candyshop.local", "admin12345"); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	categories := map[string][]string{
		"Chocolate":  {"Dark Chocolate", "Milk Chocolate", "Truffles"},
		"Gummies":    {"Bears", "Sour Strips"},
		"Hard Candy": {"Lollipops", "Mints"},
	}
	subIDs := make(map[string]string)
	for cat, subs := range categories {
		catID, err := ensureCategory(ctx, pool, cat)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", cat, err)
		}
		for _, sub := range subs {
			id, err := ensureSubCategory(ctx, pool, catID, sub)
			if err != nil {
				return fmt.Errorf("ensure subcategory %s: %w", sub, err)
			}
			subIDs[sub] = id
		}
	}

	publishers := []string{"SweetWorks", "Bonbon & Co", "Nordic Candy"}
	pubIDs := make(map[string]string)
	for _, name := range publishers {
		id, err := ensurePublisher(ctx, pool, name)
		if err != nil {
			return fmt.Errorf("ensure publisher %s: %w", name, err)
		}
		pubIDs[name] = id
	}

	products := []productSeed{
		{Name: "70% Dark Bar", Description: "Single-origin dark chocolate bar", SubCategory: "Dark Chocolate", Publisher: "Bonbon & Co", Price: 45000},
		{Name: "Sea Salt Milk Bar", Description: "Creamy milk chocolate with sea salt", SubCategory: "Milk Chocolate", Publisher: "Bonbon & Co", Price: 39000},
		{Name: "Champagne Truffle Box", Description: "Twelve champagne truffles", SubCategory: "Truffles", Publisher: "Nordic Candy", Price: 120000},
		{Name: "Classic Gummy Bears", Description: "Five-fruit gummy bear mix", SubCategory: "Bears", Publisher: "SweetWorks", Price: 25000},
		{Name: "Sour Rainbow Strips", Description: "Extra sour fruit strips", SubCategory: "Sour Strips", Publisher: "SweetWorks", Price: 28000},
		{Name: "Strawberry Swirl Lollipop", Description: "Hand-pulled strawberry lollipop", SubCategory: "Lollipops", Publisher: "Nordic Candy", Price: 15000},
		{Name: "Glacier Mints", Description: "Clear peppermint drops", SubCategory: "Mints", Publisher: "SweetWorks", Price: 18000},
	}
	for _, p := range products {
		if err := upsertProduct(ctx, pool, subIDs[p.SubCategory], pubIDs[p.Publisher], p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (user_name, email, password_hash, role, verified)
VALUES ('admin', $1, $2, 'ADMIN', true)
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, email, string(hash))
	return err
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureSubCategory(ctx context.Context, pool *pgxpool.Pool, categoryID, name string) (string, error) {
	const q = `
INSERT INTO subcategories (category_id, name)
VALUES ($1, $2)
ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, categoryID, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensurePublisher(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	const q = `
INSERT INTO publishers (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, subCategoryID, publisherID string, p productSeed) error {
	const insert = `
INSERT INTO products (name, description, image_url, subcategory_id, publisher_id)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description,
    subcategory_id = EXCLUDED.subcategory_id,
    publisher_id = EXCLUDED.publisher_id
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, insert, p.Name, p.Description, p.ImageURL, subCategoryID, publisherID).Scan(&id); err != nil {
		return err
	}

	// Append a price-history row only when the price actually changed, so
	// reruns do not grow the history.
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
	_, err := pool.Exec(ctx, price, id, p.Price)
	return err
}
