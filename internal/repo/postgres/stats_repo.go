package postgres

import (
	"context"

	"github.com/geocoder89/rfphub/internal/domain/dashboard"
	"github.com/geocoder89/rfphub/internal/domain/reputation"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepo serves the aggregate read models: seller reputation and the
// buyer dashboard.
type StatsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{pool: pool, prom: prom}
}

func (r *StatsRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

// SellerStats counts the seller's orders and offers. An order is on time
// when it was delivered by the rfp deadline or has no rfp deadline at all.
func (r *StatsRepo) SellerStats(ctx context.Context, sellerID string) (reputation.Stats, error) {
	var s reputation.Stats

	err := r.observe("stats.seller_orders", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE o.status = 'delivered'),
			       COUNT(*) FILTER (WHERE o.status = 'cancelled'),
			       COUNT(*) FILTER (WHERE o.status = 'delivered'
			                          AND (r.deadline IS NULL OR o.delivered_at <= r.deadline))
			FROM orders o
			LEFT JOIN rfps r ON r.id = o.rfp_id
			WHERE o.seller_id = $1
		`, sellerID).Scan(&s.TotalOrders, &s.Delivered, &s.Cancelled, &s.OnTime)
	})
	if err != nil {
		return reputation.Stats{}, err
	}

	err = r.observe("stats.seller_offers", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'withdrawn')
			FROM offers
			WHERE seller_id = $1
		`, sellerID).Scan(&s.TotalOffers, &s.WithdrawnOffers)
	})
	if err != nil {
		return reputation.Stats{}, err
	}

	return s, nil
}

func (r *StatsRepo) DashboardCounts(ctx context.Context, buyerID string) (dashboard.Counts, error) {
	var c dashboard.Counts

	err := r.observe("stats.dashboard", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM rfps WHERE buyer_id = $1),
				(SELECT COUNT(*) FROM rfps WHERE buyer_id = $1 AND status = 'awarded'),
				(SELECT COUNT(*) FROM rfps WHERE buyer_id = $1 AND status = 'closed'),
				(SELECT COUNT(*) FROM rfps WHERE buyer_id = $1 AND status = 'cancelled'),
				(SELECT COUNT(*) FROM offers f JOIN rfps r ON r.id = f.rfp_id
				  WHERE r.buyer_id = $1 AND f.status = 'pending'),
				(SELECT COALESCE(SUM(total_amount), 0)::float8 FROM orders
				  WHERE buyer_id = $1 AND status <> 'cancelled')
		`, buyerID).Scan(&c.TotalRFPs, &c.Awarded, &c.Closed, &c.Cancelled, &c.ActiveOffers, &c.TotalSpent)
	})

	return c, err
}

func (r *StatsRepo) RecentRFPs(ctx context.Context, buyerID string, limit int) ([]rfp.RFP, error) {
	out := make([]rfp.RFP, 0, limit)

	err := r.observe("stats.recent_rfps", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+rfpColumns+`
			FROM rfps
			WHERE buyer_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, buyerID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			x, err := scanRFP(rows)
			if err != nil {
				return err
			}
			out = append(out, x)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
