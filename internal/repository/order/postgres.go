package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

const orderColumns = `
SELECT id::text, user_id::text, customer_name, phone_number, address,
       province_id, district_id, ward_id, COALESCE(note, ''),
       payment_method, shipping_fee, total_amount, status, created_at
FROM orders
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "order").Logger()}
}

// Create inserts the order and its detail lines in one transaction so a
// half-written order can never be observed.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO orders (user_id, customer_name, phone_number, address, province_id, district_id, ward_id, note, payment_method, shipping_fee, total_amount, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
RETURNING id::text, created_at
`
	out := o
	if err := tx.QueryRow(ctx, q,
		o.UserID, o.CustomerName, o.PhoneNumber, o.Address,
		o.ProvinceID, o.DistrictID, o.WardID, o.Note,
		o.PaymentMethod, o.ShippingFee, o.TotalAmount, o.Status,
	).Scan(&out.ID, &out.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("user_id", o.UserID).Msg("insert order")
		return nil, err
	}

	const detailQ = `
INSERT INTO order_details (order_id, product_id, quantity, price, price_history_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text
`
	for i := range out.Details {
		d := &out.Details[i]
		d.OrderID = out.ID
		if err := tx.QueryRow(ctx, detailQ, out.ID, d.ProductID, d.Quantity, d.Price, d.PriceHistoryID).Scan(&d.ID); err != nil {
			r.logger.Error().Err(err).Str("order_id", out.ID).Str("product_id", d.ProductID).Msg("insert order detail")
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info().Str("order_id", out.ID).Int("lines", len(out.Details)).Int64("total", out.TotalAmount).Msg("order created")
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, orderColumns+` WHERE id = $1`, id).Scan(
		&o.ID, &o.UserID, &o.CustomerName, &o.PhoneNumber, &o.Address,
		&o.ProvinceID, &o.DistrictID, &o.WardID, &o.Note,
		&o.PaymentMethod, &o.ShippingFee, &o.TotalAmount, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	details, err := r.fetchDetails(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Details = details
	return &o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.queryOrders(ctx, orderColumns+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.queryOrders(ctx, orderColumns+` ORDER BY created_at DESC`)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info().Str("order_id", id).Str("status", status).Msg("order status updated")
	return nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.CustomerName, &o.PhoneNumber, &o.Address,
			&o.ProvinceID, &o.DistrictID, &o.WardID, &o.Note,
			&o.PaymentMethod, &o.ShippingFee, &o.TotalAmount, &o.Status, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		details, err := r.fetchDetails(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Details = details
	}
	return result, nil
}

func (r *postgresRepo) fetchDetails(ctx context.Context, orderID string) ([]domain.OrderDetail, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, quantity, price, price_history_id::text
FROM order_details
WHERE order_id = $1
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.OrderDetail
	for rows.Next() {
		var d domain.OrderDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &d.Price, &d.PriceHistoryID); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
