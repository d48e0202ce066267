package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role,
	organization_id, is_active, is_verified, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&role,
		&u.OrganizationID,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// Create inserts u; a duplicate email maps to user.ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role,
				organization_id, is_active, is_verified, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, string(u.Role),
			u.OrganizationID, u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt)
		return err
	})

	if err != nil && IsUniqueViolation(err) && isConstraint(err, "users_email_uniq") {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			user.NormalizeEmail(email),
		))
		return err
	})

	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
		))
		return err
	})

	return u, err
}

// UpdateProfile changes only first_name, last_name and phone.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error) {
	var u user.User

	err := r.observe("users.update_profile", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			UPDATE users
			SET first_name = COALESCE($2, first_name),
			    last_name = COALESCE($3, last_name),
			    phone = COALESCE($4, phone),
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, req.FirstName, req.LastName, req.Phone,
		))
		return err
	})

	return u, err
}

func (r *UsersRepo) SetOrganizationTx(ctx context.Context, tx pgx.Tx, userID, orgID string) error {
	return r.observe("users.set_organization", func() error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET organization_id = $2, updated_at = NOW() WHERE id = $1
		`, userID, orgID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}
