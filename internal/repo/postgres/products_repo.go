package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/rfphub/internal/domain/product"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{pool: pool, prom: prom}
}

func (r *ProductsRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

const productColumns = `id, seller_id, organization_id, title, description, category, price, currency,
	stock_quantity, images, specifications, is_active, created_at, updated_at`

func scanProduct(row pgx.Row, extra ...any) (product.Product, error) {
	var p product.Product

	dest := []any{
		&p.ID, &p.SellerID, &p.OrganizationID, &p.Title, &p.Description, &p.Category, &p.Price, &p.Currency,
		&p.StockQuantity, &p.Images, &p.Specifications, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) error {
	return r.observe("products.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, p.ID, p.SellerID, p.OrganizationID, p.Title, p.Description, p.Category, p.Price, p.Currency,
			p.StockQuantity, p.Images, p.Specifications, p.IsActive, p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	var p product.Product

	err := r.observe("products.get_by_id", func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})

	return p, err
}

// List expects a normalized filter; sort keys are whitelisted there.
func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	conds := []string{"is_active = TRUE"}
	var args []any
	argsPos := 1

	if f.Category != "" {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPos))
		args = append(args, f.Category)
		argsPos++
	}
	if f.PriceMin != nil {
		conds = append(conds, fmt.Sprintf("price >= $%d", argsPos))
		args = append(args, *f.PriceMin)
		argsPos++
	}
	if f.PriceMax != nil {
		conds = append(conds, fmt.Sprintf("price <= $%d", argsPos))
		args = append(args, *f.PriceMax)
		argsPos++
	}

	sortCol := "created_at"
	if f.SortBy == "price" {
		sortCol = "price"
	}
	sortDir := "DESC"
	if f.SortOrder == "asc" {
		sortDir = "ASC"
	}

	q := `SELECT ` + productColumns + `, COUNT(*) OVER() AS total FROM products WHERE ` +
		strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d", sortCol, sortDir, argsPos, argsPos+1)
	args = append(args, f.Limit, f.Offset)

	out := make([]product.Product, 0, f.Limit)
	total := 0

	err := r.observe("products.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			p, err := scanProduct(rows, &t)
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
