package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRow struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

// Usable reports whether the token can still be exchanged at now.
func (row RefreshTokenRow) Usable(now time.Time) bool {
	return row.RevokedAt == nil && now.Before(row.ExpiresAt)
}

type RefreshTokensRepo struct {
	pool   *pgxpool.Pool
	prom   *observability.Prom
	logger *slog.Logger
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, prom: prom, logger: slog.Default()}
}

func (r *RefreshTokensRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

func (r *RefreshTokensRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

func (r *RefreshTokensRepo) Create(ctx context.Context, tx pgx.Tx, row RefreshTokenRow) error {
	return r.observe("refresh_tokens.create", func() error {
		_, err := tx.Exec(ctx, `
			INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt)
		return err
	})
}

// GetForUpdate locks the row so two concurrent refreshes cannot both rotate it.
func (r *RefreshTokensRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (RefreshTokenRow, error) {
	var row RefreshTokenRow

	err := r.observe("refresh_tokens.get_for_update", func() error {
		return tx.QueryRow(ctx, `
			SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
			FROM refresh_tokens
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(
			&row.ID,
			&row.UserID,
			&row.TokenHash,
			&row.ExpiresAt,
			&row.RevokedAt,
			&row.ReplacedBy,
			&row.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshTokenRow{}, ErrRefreshTokenNotFound
		}
		return RefreshTokenRow{}, err
	}

	return row, nil
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error {
	return r.observe("refresh_tokens.revoke", func() error {
		_, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), replaced_by = $2
			WHERE id = $1 AND revoked_at IS NULL
		`, id, replacedBy)
		return err
	})
}

// RevokeAllForUser is used on token reuse and on logout.
func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error {
	return r.observe("refresh_tokens.revoke_all_for_user", func() error {
		_, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
}

var (
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenMismatch = errors.New("refresh token does not match stored hash")
)

// Save stores a freshly issued refresh token.
func (r *RefreshTokensRepo) Save(ctx context.Context, row RefreshTokenRow) error {
	return withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		return r.Create(ctx, tx, row)
	})
}

// Rotate swaps the token oldID for next under a row lock. Presenting a token
// that was already rotated revokes every session of its user.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID, presentedHash string, next RefreshTokenRow, now time.Time) error {
	var reused bool
	var owner string

	err := withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		row, err := r.GetForUpdate(ctx, tx, oldID)
		if err != nil {
			return err
		}
		owner = row.UserID

		if row.TokenHash != presentedHash {
			return ErrRefreshTokenMismatch
		}
		if row.RevokedAt != nil {
			reused = row.ReplacedBy != nil
			return ErrRefreshTokenRevoked
		}
		if !row.Usable(now) {
			return ErrRefreshTokenExpired
		}
		if row.UserID != next.UserID {
			return ErrRefreshTokenMismatch
		}

		if err := r.Revoke(ctx, tx, row.ID, &next.ID); err != nil {
			return err
		}
		return r.Create(ctx, tx, next)
	})

	if reused {
		revokeErr := r.revokeFamily(ctx, owner, func(ctx context.Context) error {
			return withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
				return r.RevokeAllForUser(ctx, tx, owner)
			})
		})
		if revokeErr != nil {
			return errors.Join(err, revokeErr)
		}
	}

	return err
}

// revokeFamily runs revokeAll after a rotated token was presented again.
// A failure leaves the user's other sessions live and is logged as such.
func (r *RefreshTokensRepo) revokeFamily(ctx context.Context, userID string, revokeAll func(context.Context) error) error {
	if err := revokeAll(ctx); err != nil {
		r.logger.ErrorContext(ctx, "refresh_tokens.revoke_family_error", "user_id", userID, "err", err)
		return fmt.Errorf("revoke sessions of user %s: %w", userID, err)
	}
	r.logger.WarnContext(ctx, "refresh_tokens.reuse_detected", "user_id", userID)
	return nil
}

// RevokeByID is idempotent; unknown ids are ignored.
func (r *RefreshTokensRepo) RevokeByID(ctx context.Context, id string) error {
	return withTx(ctx, r.BeginTx, func(tx pgx.Tx) error {
		return r.Revoke(ctx, tx, id, nil)
	})
}
