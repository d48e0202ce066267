package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RFPsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	jobs *JobsRepo
}

func NewRFPsRepo(pool *pgxpool.Pool, prom *observability.Prom, jobs *JobsRepo) *RFPsRepo {
	return &RFPsRepo{pool: pool, prom: prom, jobs: jobs}
}

func (r *RFPsRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

func (r *RFPsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

const rfpColumns = `id, title, description, category, budget_min, budget_max, deadline, location,
	requirements, status, buyer_id, organization_id, is_private, ai_summary, awarded_offer_id,
	created_at, updated_at`

func scanRFP(row pgx.Row, extra ...any) (rfp.RFP, error) {
	var x rfp.RFP
	var status string

	dest := []any{
		&x.ID, &x.Title, &x.Description, &x.Category, &x.BudgetMin, &x.BudgetMax, &x.Deadline, &x.Location,
		&x.Requirements, &status, &x.BuyerID, &x.OrganizationID, &x.IsPrivate, &x.AISummary, &x.AwardedOfferID,
		&x.CreatedAt, &x.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rfp.RFP{}, rfp.ErrNotFound
		}
		return rfp.RFP{}, err
	}

	x.Status = rfp.Status(status)
	return x, nil
}

func getRFPForUpdate(ctx context.Context, tx pgx.Tx, prom *observability.Prom, id string) (rfp.RFP, error) {
	var x rfp.RFP
	err := observeDB(prom, "rfps.get_for_update", func() error {
		var err error
		x, err = scanRFP(tx.QueryRow(ctx, `SELECT `+rfpColumns+` FROM rfps WHERE id = $1 FOR UPDATE`, id))
		return err
	})
	return x, err
}

func saveRFP(ctx context.Context, q querier, prom *observability.Prom, x rfp.RFP) error {
	return observeDB(prom, "rfps.save", func() error {
		tag, err := q.Exec(ctx, `
			UPDATE rfps
			SET title = $2, description = $3, category = $4, budget_min = $5, budget_max = $6,
			    deadline = $7, location = $8, requirements = $9, status = $10, is_private = $11,
			    ai_summary = $12, awarded_offer_id = $13, updated_at = $14
			WHERE id = $1
		`, x.ID, x.Title, x.Description, x.Category, x.BudgetMin, x.BudgetMax,
			x.Deadline, x.Location, x.Requirements, string(x.Status), x.IsPrivate,
			x.AISummary, x.AwardedOfferID, x.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return rfp.ErrNotFound
		}
		return nil
	})
}

// Create inserts the rfp and its summarize job in one transaction.
func (r *RFPsRepo) Create(ctx context.Context, x rfp.RFP, summarize job.CreateRequest) error {
	return withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		err := r.observe("rfps.create", func() error {
			_, err := tx.Exec(ctx, `
				INSERT INTO rfps (`+rfpColumns+`)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			`, x.ID, x.Title, x.Description, x.Category, x.BudgetMin, x.BudgetMax, x.Deadline, x.Location,
				x.Requirements, string(x.Status), x.BuyerID, x.OrganizationID, x.IsPrivate, x.AISummary, x.AwardedOfferID,
				x.CreatedAt, x.UpdatedAt)
			return err
		})
		if err != nil {
			return err
		}

		_, err = r.jobs.CreateTx(ctx, tx, summarize)
		return err
	})
}

func (r *RFPsRepo) GetByID(ctx context.Context, id string) (rfp.RFP, error) {
	var x rfp.RFP

	err := r.observe("rfps.get_by_id", func() error {
		var err error
		x, err = scanRFP(r.pool.QueryRow(ctx, `SELECT `+rfpColumns+` FROM rfps WHERE id = $1`, id))
		return err
	})

	return x, err
}

// List returns one page plus the total match count. Private rfps and drafts
// are only listed for their own buyer.
func (r *RFPsRepo) List(ctx context.Context, f rfp.ListFilter) ([]rfp.RFP, int, error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if f.ViewerID != "" {
		conds = append(conds, fmt.Sprintf("(is_private = FALSE OR buyer_id = $%d)", argsPos))
		conds = append(conds, fmt.Sprintf("(status <> 'draft' OR buyer_id = $%d)", argsPos))
		args = append(args, f.ViewerID)
		argsPos++
	} else {
		conds = append(conds, "is_private = FALSE", "status <> 'draft'")
	}

	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPos))
		args = append(args, strings.ToLower(f.Category))
		argsPos++
	}

	if f.Status != "" {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPos))
		args = append(args, string(f.Status))
		argsPos++
	}

	q := `SELECT ` + rfpColumns + `, COUNT(*) OVER() AS total FROM rfps WHERE ` +
		strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPos, argsPos+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]rfp.RFP, 0, f.Limit)
	total := 0

	err := r.observe("rfps.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			x, err := scanRFP(rows, &t)
			if err != nil {
				return err
			}
			total = t
			out = append(out, x)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Mutate loads the rfp under a row lock, lets fn change it and saves the
// result. An error from fn aborts without writing.
func (r *RFPsRepo) Mutate(ctx context.Context, id string, fn func(*rfp.RFP) error) (rfp.RFP, error) {
	var out rfp.RFP

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		x, err := getRFPForUpdate(ctx, tx, r.prom, id)
		if err != nil {
			return err
		}

		if err := fn(&x); err != nil {
			return err
		}

		if err := saveRFP(ctx, tx, r.prom, x); err != nil {
			return err
		}
		out = x
		return nil
	})

	return out, err
}

func (r *RFPsRepo) SetSummary(ctx context.Context, id, summary string) error {
	return r.observe("rfps.set_summary", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE rfps SET ai_summary = $2, updated_at = NOW() WHERE id = $1
		`, id, summary)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return rfp.ErrNotFound
		}
		return nil
	})
}

// CloseOverdue closes published rfps whose deadline is before now.
func (r *RFPsRepo) CloseOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64

	err := r.observe("rfps.close_overdue", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE rfps
			SET status = 'closed', updated_at = $1
			WHERE status = 'published' AND deadline < $1
		`, now)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})

	return n, err
}
