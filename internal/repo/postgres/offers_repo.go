package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/domain/offer"
	"github.com/geocoder89/rfphub/internal/domain/order"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OffersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	jobs *JobsRepo
}

func NewOffersRepo(pool *pgxpool.Pool, prom *observability.Prom, jobs *JobsRepo) *OffersRepo {
	return &OffersRepo{pool: pool, prom: prom, jobs: jobs}
}

func (r *OffersRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

func (r *OffersRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// NotifyJobFunc builds the offer.notify job once the rfp and offer are known.
type NotifyJobFunc func(r rfp.RFP, o offer.Offer) (job.CreateRequest, error)

// AcceptResult is everything touched by accepting an offer.
type AcceptResult struct {
	Offer offer.Offer `json:"offer"`
	RFP   rfp.RFP     `json:"rfp"`
	Order order.Order `json:"order"`
}

const offerColumns = `id, rfp_id, seller_id, organization_id, price, description, delivery_time,
	terms, status, is_private, created_at, updated_at`

func scanOffer(row pgx.Row, extra ...any) (offer.Offer, error) {
	var o offer.Offer
	var status string

	dest := []any{
		&o.ID, &o.RFPID, &o.SellerID, &o.OrganizationID, &o.Price, &o.Description, &o.DeliveryTime,
		&o.Terms, &status, &o.IsPrivate, &o.CreatedAt, &o.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return offer.Offer{}, offer.ErrNotFound
		}
		return offer.Offer{}, err
	}

	o.Status = offer.Status(status)
	return o, nil
}

func (r *OffersRepo) saveOffer(ctx context.Context, tx pgx.Tx, o offer.Offer) error {
	return r.observe("offers.save", func() error {
		_, err := tx.Exec(ctx, `
			UPDATE offers
			SET price = $2, description = $3, delivery_time = $4, terms = $5,
			    status = $6, is_private = $7, updated_at = $8
			WHERE id = $1
		`, o.ID, o.Price, o.Description, o.DeliveryTime, o.Terms, string(o.Status), o.IsPrivate, o.UpdatedAt)
		return err
	})
}

// Create validates the rfp under a share lock, inserts o and enqueues the
// buyer notification in the same transaction.
func (r *OffersRepo) Create(ctx context.Context, o offer.Offer, notify NotifyJobFunc) (rfp.RFP, error) {
	var target rfp.RFP

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		err := r.observe("offers.create.rfp_lock", func() error {
			var err error
			target, err = scanRFP(tx.QueryRow(ctx, `SELECT `+rfpColumns+` FROM rfps WHERE id = $1 FOR SHARE`, o.RFPID))
			return err
		})
		if err != nil {
			return err
		}

		if !target.AcceptsOffers() {
			return rfp.ErrNotOpen
		}
		if target.BuyerID == o.SellerID {
			return offer.ErrOwnRFP
		}

		err = r.observe("offers.create.insert", func() error {
			_, err := tx.Exec(ctx, `
				INSERT INTO offers (`+offerColumns+`)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			`, o.ID, o.RFPID, o.SellerID, o.OrganizationID, o.Price, o.Description, o.DeliveryTime,
				o.Terms, string(o.Status), o.IsPrivate, o.CreatedAt, o.UpdatedAt)
			return err
		})
		if err != nil {
			if IsUniqueViolation(err) && isConstraint(err, "offers_rfp_seller_uniq") {
				return offer.ErrAlreadySubmitted
			}
			return err
		}

		if notify == nil {
			return nil
		}
		req, err := notify(target, o)
		if err != nil {
			return err
		}
		_, err = r.jobs.CreateTx(ctx, tx, req)
		return err
	})

	return target, err
}

func (r *OffersRepo) GetByID(ctx context.Context, id string) (offer.Offer, error) {
	var o offer.Offer

	err := r.observe("offers.get_by_id", func() error {
		var err error
		o, err = scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
		return err
	})

	return o, err
}

// GetWithRFP loads an offer together with the rfp it answers.
func (r *OffersRepo) GetWithRFP(ctx context.Context, id string) (offer.Offer, rfp.RFP, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return offer.Offer{}, rfp.RFP{}, err
	}

	var x rfp.RFP
	err = r.observe("offers.get_rfp", func() error {
		var err error
		x, err = scanRFP(r.pool.QueryRow(ctx, `SELECT `+rfpColumns+` FROM rfps WHERE id = $1`, o.RFPID))
		return err
	})
	if err != nil {
		return offer.Offer{}, rfp.RFP{}, err
	}

	return o, x, nil
}

func (r *OffersRepo) list(ctx context.Context, op, where, arg string, limit, offset int) ([]offer.Offer, int, error) {
	out := make([]offer.Offer, 0, limit)
	total := 0

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+offerColumns+`, COUNT(*) OVER() AS total
			FROM offers
			WHERE `+where+`
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, arg, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			o, err := scanOffer(rows, &t)
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

func (r *OffersRepo) ListByRFP(ctx context.Context, rfpID string, limit, offset int) ([]offer.Offer, int, error) {
	return r.list(ctx, "offers.list_by_rfp", "rfp_id = $1", rfpID, limit, offset)
}

func (r *OffersRepo) ListBySeller(ctx context.Context, sellerID string, limit, offset int) ([]offer.Offer, int, error) {
	return r.list(ctx, "offers.list_by_seller", "seller_id = $1", sellerID, limit, offset)
}

// lockForSeller locks the offer and its rfp and checks the seller may still
// change it.
func (r *OffersRepo) lockForSeller(ctx context.Context, tx pgx.Tx, id, sellerID string) (offer.Offer, rfp.RFP, error) {
	var o offer.Offer
	err := r.observe("offers.get_for_update", func() error {
		var err error
		o, err = scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id))
		return err
	})
	if err != nil {
		return offer.Offer{}, rfp.RFP{}, err
	}
	if o.SellerID != sellerID {
		return offer.Offer{}, rfp.RFP{}, offer.ErrForbidden
	}

	x, err := getRFPForUpdate(ctx, tx, r.prom, o.RFPID)
	if err != nil {
		return offer.Offer{}, rfp.RFP{}, err
	}
	if !x.AcceptsOffers() {
		return offer.Offer{}, rfp.RFP{}, rfp.ErrNotOpen
	}

	return o, x, nil
}

func (r *OffersRepo) Update(ctx context.Context, id, sellerID string, req offer.UpdateRequest, now time.Time) (offer.Offer, error) {
	var out offer.Offer

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		o, _, err := r.lockForSeller(ctx, tx, id, sellerID)
		if err != nil {
			return err
		}
		if err := o.Apply(req, now); err != nil {
			return err
		}
		if err := r.saveOffer(ctx, tx, o); err != nil {
			return err
		}
		out = o
		return nil
	})

	return out, err
}

// Withdraw soft-deletes a pending offer.
func (r *OffersRepo) Withdraw(ctx context.Context, id, sellerID string, now time.Time) (offer.Offer, error) {
	var out offer.Offer

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		o, _, err := r.lockForSeller(ctx, tx, id, sellerID)
		if err != nil {
			return err
		}
		if o.Status != offer.StatusPending {
			return offer.ErrNotPending
		}

		o.Status = offer.StatusWithdrawn
		o.UpdatedAt = now
		if err := r.saveOffer(ctx, tx, o); err != nil {
			return err
		}
		out = o
		return nil
	})

	return out, err
}

// Accept awards the rfp to the offer, rejects competing pending offers,
// creates the order and enqueues the seller notification atomically.
func (r *OffersRepo) Accept(ctx context.Context, offerID, buyerID string, now time.Time, notify NotifyJobFunc) (AcceptResult, error) {
	var res AcceptResult

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		var o offer.Offer
		err := r.observe("offers.accept.offer_lock", func() error {
			var err error
			o, err = scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, offerID))
			return err
		})
		if err != nil {
			return err
		}

		x, err := getRFPForUpdate(ctx, tx, r.prom, o.RFPID)
		if err != nil {
			return err
		}
		if x.BuyerID != buyerID {
			return offer.ErrForbidden
		}
		if !x.AcceptsOffers() {
			return rfp.ErrNotOpen
		}
		if o.Status != offer.StatusPending {
			return offer.ErrNotPending
		}

		if err := x.Transition(rfp.StatusAwarded, now); err != nil {
			return err
		}
		x.AwardedOfferID = &o.ID
		if err := saveRFP(ctx, tx, r.prom, x); err != nil {
			return err
		}

		o.Status = offer.StatusAccepted
		o.UpdatedAt = now
		if err := r.saveOffer(ctx, tx, o); err != nil {
			return err
		}

		err = r.observe("offers.accept.reject_others", func() error {
			_, err := tx.Exec(ctx, `
				UPDATE offers
				SET status = 'rejected', updated_at = $3
				WHERE rfp_id = $1 AND id <> $2 AND status = 'pending'
			`, x.ID, o.ID, now)
			return err
		})
		if err != nil {
			return err
		}

		ord := order.NewForOffer(x.BuyerID, o.SellerID, x.ID, o.ID, o.Price, now)
		if err := insertOrder(ctx, tx, r.prom, ord); err != nil {
			return err
		}

		if notify != nil {
			req, err := notify(x, o)
			if err != nil {
				return err
			}
			if _, err := r.jobs.CreateTx(ctx, tx, req); err != nil {
				return err
			}
		}

		res = AcceptResult{Offer: o, RFP: x, Order: ord}
		return nil
	})

	return res, err
}
