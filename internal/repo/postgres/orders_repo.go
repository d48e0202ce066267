package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/rfphub/internal/domain/order"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrdersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrdersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrdersRepo {
	return &OrdersRepo{pool: pool, prom: prom}
}

func (r *OrdersRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

func (r *OrdersRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

const orderColumns = `id, buyer_id, seller_id, rfp_id, offer_id, product_id, pool_id, quantity,
	total_amount, currency, status, payment_status, shipping_address, delivered_at, created_at, updated_at`

func scanOrder(row pgx.Row, extra ...any) (order.Order, error) {
	var o order.Order
	var status, payment string

	dest := []any{
		&o.ID, &o.BuyerID, &o.SellerID, &o.RFPID, &o.OfferID, &o.ProductID, &o.PoolID, &o.Quantity,
		&o.TotalAmount, &o.Currency, &status, &payment, &o.ShippingAddress, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}

	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payment)
	return o, nil
}

func insertOrder(ctx context.Context, q querier, prom *observability.Prom, o order.Order) error {
	return observeDB(prom, "orders.create", func() error {
		_, err := q.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`, o.ID, o.BuyerID, o.SellerID, o.RFPID, o.OfferID, o.ProductID, o.PoolID, o.Quantity,
			o.TotalAmount, o.Currency, string(o.Status), string(o.PaymentStatus), o.ShippingAddress,
			o.DeliveredAt, o.CreatedAt, o.UpdatedAt)
		return err
	})
}

// ListForUser pages the orders where userID is buyer or seller, newest first.
func (r *OrdersRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]order.Order, int, error) {
	out := make([]order.Order, 0, limit)
	total := 0

	err := r.observe("orders.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+orderColumns+`, COUNT(*) OVER() AS total
			FROM orders
			WHERE buyer_id = $1 OR seller_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, userID, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			o, err := scanOrder(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (order.Order, error) {
	var o order.Order

	err := r.observe("orders.get_by_id", func() error {
		var err error
		o, err = scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
		return err
	})

	return o, err
}

// UpdateStatus applies the transition under a row lock so concurrent updates
// serialize against the current status.
func (r *OrdersRepo) UpdateStatus(ctx context.Context, id string, actor order.Actor, next order.Status) (order.Order, error) {
	var out order.Order

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		var o order.Order
		err := r.observe("orders.get_for_update", func() error {
			var err error
			o, err = scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
			return err
		})
		if err != nil {
			return err
		}

		if !o.Involves(actor) {
			return order.ErrNotFound
		}

		if err := o.Transition(next, actor, o.UpdatedAt.UTC()); err != nil {
			return err
		}

		err = r.observe("orders.update_status", func() error {
			return tx.QueryRow(ctx, `
				UPDATE orders
				SET status = $2,
				    delivered_at = CASE WHEN $2 = 'delivered' THEN NOW() ELSE delivered_at END,
				    updated_at = NOW()
				WHERE id = $1
				RETURNING delivered_at, updated_at
			`, o.ID, string(o.Status)).Scan(&o.DeliveredAt, &o.UpdatedAt)
		})
		if err != nil {
			return err
		}

		out = o
		return nil
	})

	return out, err
}
