package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/pool"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPoolsRepo(db *pgxpool.Pool, prom *observability.Prom) *PoolsRepo {
	return &PoolsRepo{pool: db, prom: prom}
}

func (r *PoolsRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

func (r *PoolsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

const poolColumns = `id, name, description, product_id, min_quantity, target_quantity, current_quantity,
	base_price, tiers, deadline, status, created_by, created_at, updated_at`

func scanPool(row pgx.Row, extra ...any) (pool.Pool, error) {
	var p pool.Pool
	var status string

	dest := []any{
		&p.ID, &p.Name, &p.Description, &p.ProductID, &p.MinQuantity, &p.TargetQuantity, &p.CurrentQuantity,
		&p.BasePrice, &p.Tiers, &p.Deadline, &status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pool.Pool{}, pool.ErrNotFound
		}
		return pool.Pool{}, err
	}

	p.Status = pool.Status(status)
	if p.Tiers == nil {
		p.Tiers = []pool.Tier{}
	}
	return p, nil
}

func (r *PoolsRepo) Create(ctx context.Context, p pool.Pool) error {
	return r.observe("pools.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO pools (`+poolColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, p.ID, p.Name, p.Description, p.ProductID, p.MinQuantity, p.TargetQuantity, p.CurrentQuantity,
			p.BasePrice, p.Tiers, p.Deadline, string(p.Status), p.CreatedBy, p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (r *PoolsRepo) GetByID(ctx context.Context, id string) (pool.Pool, error) {
	var p pool.Pool

	err := r.observe("pools.get_by_id", func() error {
		var err error
		p, err = scanPool(r.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE id = $1`, id))
		return err
	})

	return p, err
}

// List pages pools, optionally narrowed to one status, soonest deadline first.
func (r *PoolsRepo) List(ctx context.Context, status pool.Status, limit, offset int) ([]pool.Pool, int, error) {
	out := make([]pool.Pool, 0, limit)
	total := 0

	err := r.observe("pools.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+poolColumns+`, COUNT(*) OVER() AS total
			FROM pools
			WHERE ($1 = '' OR status = $1)
			ORDER BY deadline ASC, id ASC
			LIMIT $2 OFFSET $3
		`, string(status), limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			p, err := scanPool(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Join locks the pool row, applies the commitment and records the member.
func (r *PoolsRepo) Join(ctx context.Context, id, userID string, qty int, now time.Time) (pool.Pool, pool.Member, error) {
	var (
		outPool   pool.Pool
		outMember pool.Member
	)

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		var p pool.Pool
		err := r.observe("pools.join.lock", func() error {
			var err error
			p, err = scanPool(tx.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE id = $1 FOR UPDATE`, id))
			return err
		})
		if err != nil {
			return err
		}

		m, err := p.Join(userID, qty, now)
		if err != nil {
			return err
		}

		err = r.observe("pools.join.update", func() error {
			_, err := tx.Exec(ctx, `
				UPDATE pools SET current_quantity = $2, status = $3, updated_at = $4 WHERE id = $1
			`, p.ID, p.CurrentQuantity, string(p.Status), p.UpdatedAt)
			return err
		})
		if err != nil {
			return err
		}

		err = r.observe("pools.join.member", func() error {
			_, err := tx.Exec(ctx, `
				INSERT INTO pool_members (pool_id, user_id, quantity, committed_amount, joined_at)
				VALUES ($1,$2,$3,$4,$5)
			`, m.PoolID, m.UserID, m.Quantity, m.CommittedAmount, m.JoinedAt)
			return err
		})
		if err != nil {
			return err
		}

		outPool, outMember = p, m
		return nil
	})

	return outPool, outMember, err
}

// SweepOverdue settles active pools past their deadline. Rows locked by a
// concurrent join are skipped and picked up by the next sweep.
func (r *PoolsRepo) SweepOverdue(ctx context.Context, now time.Time) (completed, expired int, err error) {
	err = withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		var due []pool.Pool

		err := r.observe("pools.sweep.select", func() error {
			rows, err := tx.Query(ctx, `
				SELECT `+poolColumns+`
				FROM pools
				WHERE status = 'active' AND deadline <= $1
				FOR UPDATE SKIP LOCKED
			`, now)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				p, err := scanPool(rows)
				if err != nil {
					return err
				}
				due = append(due, p)
			}
			return rows.Err()
		})
		if err != nil {
			return err
		}

		for _, p := range due {
			next, ok := p.SweepOutcome(now)
			if !ok {
				continue
			}

			err := r.observe("pools.sweep.update", func() error {
				_, err := tx.Exec(ctx, `UPDATE pools SET status = $2, updated_at = $3 WHERE id = $1`, p.ID, string(next), now)
				return err
			})
			if err != nil {
				return err
			}

			if next == pool.StatusCompleted {
				completed++
			} else {
				expired++
			}
		}
		return nil
	})

	return completed, expired, err
}
