package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/product"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

type ProductsStore interface {
	Create(ctx context.Context, p product.Product) error
	GetByID(ctx context.Context, id string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error)
}

type ProductsHandler struct {
	products ProductsStore
	users    UserLookup
	now      func() time.Time
}

func NewProductsHandler(products ProductsStore, users UserLookup) *ProductsHandler {
	return &ProductsHandler{products: products, users: users, now: func() time.Time { return time.Now().UTC() }}
}

// POST /products
func (h *ProductsHandler) Create(ctx *gin.Context) {
	sellerID, _, ok := caller(ctx)
	if !ok {
		return
	}

	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	seller, err := h.users.GetByID(cctx, sellerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Caller no longer exists")
			return
		}
		RespondInternal(ctx, "Could not create product")
		return
	}

	p := product.New(req, sellerID, seller.OrganizationID, h.now())
	if err := h.products.Create(cctx, p); err != nil {
		RespondInternal(ctx, "Could not create product")
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func optionalFloat(raw string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

// GET /products?category&price_min&price_max&sort_by&sort_order&page&per_page
func (h *ProductsHandler) List(ctx *gin.Context) {
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	priceMin, okMin := optionalFloat(ctx.Query("price_min"))
	priceMax, okMax := optionalFloat(ctx.Query("price_max"))
	if !okMin || !okMax {
		RespondBadRequest(ctx, "price_min and price_max must be non-negative numbers", nil)
		return
	}

	f := product.ListFilter{
		Category:  ctx.Query("category"),
		PriceMin:  priceMin,
		PriceMax:  priceMax,
		SortBy:    ctx.Query("sort_by"),
		SortOrder: ctx.Query("sort_order"),
		Limit:     page.PerPage,
		Offset:    page.Offset(),
	}
	if err := f.Normalize(); err != nil {
		RespondBadRequest(ctx, "sort_by must be price or created_at, sort_order asc or desc, and price_min <= price_max", nil)
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.products.List(cctx, f)
	if err != nil {
		RespondInternal(ctx, "Could not list products")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, utils.NewPaginated(items, total, page))
}

// GET /products/:id
func (h *ProductsHandler) GetByID(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	p, err := h.products.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not fetch product")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}
