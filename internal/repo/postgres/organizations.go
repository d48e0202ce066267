package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/rfphub/internal/domain/organization"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizationsRepo struct {
	pool  *pgxpool.Pool
	prom  *observability.Prom
	users *UsersRepo
}

func NewOrganizationsRepo(pool *pgxpool.Pool, prom *observability.Prom, users *UsersRepo) *OrganizationsRepo {
	return &OrganizationsRepo{pool: pool, prom: prom, users: users}
}

func (r *OrganizationsRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

// CreateAndAssign inserts org and moves the caller into it atomically.
func (r *OrganizationsRepo) CreateAndAssign(ctx context.Context, org organization.Organization, userID string) error {
	return withTx(ctx, r.users.BeginTx, func(tx pgx.Tx) error {
		err := r.observe("organizations.create", func() error {
			_, err := tx.Exec(ctx, `
				INSERT INTO organizations (id, name, description, website, logo_url, industry, size,
					is_verified, subscription_tier, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			`, org.ID, org.Name, org.Description, org.Website, org.LogoURL, org.Industry, org.Size,
				org.IsVerified, org.SubscriptionTier, org.CreatedAt, org.UpdatedAt)
			return err
		})
		if err != nil {
			return err
		}

		return r.users.SetOrganizationTx(ctx, tx, userID, org.ID)
	})
}

func (r *OrganizationsRepo) GetByID(ctx context.Context, id string) (organization.Organization, error) {
	var o organization.Organization

	err := r.observe("organizations.get_by_id", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, name, description, website, logo_url, industry, size,
			       is_verified, subscription_tier, created_at, updated_at
			FROM organizations
			WHERE id = $1
		`, id).Scan(
			&o.ID, &o.Name, &o.Description, &o.Website, &o.LogoURL, &o.Industry, &o.Size,
			&o.IsVerified, &o.SubscriptionTier, &o.CreatedAt, &o.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, err
	}

	return o, nil
}

func (r *OrganizationsRepo) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	var ok bool

	err := r.observe("organizations.is_member", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND organization_id = $2)
		`, userID, orgID).Scan(&ok)
	})

	return ok, err
}
