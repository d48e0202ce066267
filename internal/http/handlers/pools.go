package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/pool"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

type PoolsStore interface {
	Create(ctx context.Context, p pool.Pool) error
	GetByID(ctx context.Context, id string) (pool.Pool, error)
	List(ctx context.Context, status pool.Status, limit, offset int) ([]pool.Pool, int, error)
	Join(ctx context.Context, id, userID string, qty int, now time.Time) (pool.Pool, pool.Member, error)
}

type PoolsHandler struct {
	pools  PoolsStore
	events *events.Emitter
	now    func() time.Time
}

func NewPoolsHandler(pools PoolsStore, emitter *events.Emitter) *PoolsHandler {
	return &PoolsHandler{pools: pools, events: emitter, now: func() time.Time { return time.Now().UTC() }}
}

// JoinResponse is the updated pool plus the caller's commitment.
type JoinResponse struct {
	Pool   pool.View   `json:"pool"`
	Member pool.Member `json:"member"`
}

func respondPoolError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, pool.ErrNotFound):
		RespondNotFound(ctx, "Pool not found")
	case errors.Is(err, pool.ErrNotActive):
		RespondBadRequestCode(ctx, "pool_not_active", err.Error())
	case errors.Is(err, pool.ErrDeadlinePassed):
		RespondBadRequestCode(ctx, "deadline_passed", err.Error())
	case errors.Is(err, pool.ErrInvalidTiers):
		RespondBadRequestCode(ctx, "invalid_tiers", err.Error())
	case errors.Is(err, pool.ErrInvalidQuantities):
		RespondBadRequestCode(ctx, "invalid_quantities", err.Error())
	default:
		RespondInternal(ctx, fallback)
	}
}

// POST /pools
func (h *PoolsHandler) Create(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	var req pool.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	p, err := pool.New(req, userID, h.now())
	if err != nil {
		respondPoolError(ctx, err, "Could not create pool")
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.pools.Create(cctx, p); err != nil {
		RespondInternal(ctx, "Could not create pool")
		return
	}

	ctx.JSON(http.StatusCreated, p.View())
}

// GET /pools?status&page&per_page
func (h *PoolsHandler) List(ctx *gin.Context) {
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	status := pool.Status(ctx.Query("status"))
	switch status {
	case "", pool.StatusActive, pool.StatusCompleted, pool.StatusCancelled, pool.StatusExpired:
	default:
		RespondBadRequest(ctx, "Invalid status filter", nil)
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.pools.List(cctx, status, page.PerPage, page.Offset())
	if err != nil {
		RespondInternal(ctx, "Could not list pools")
		return
	}

	views := make([]pool.View, 0, len(items))
	for _, p := range items {
		views = append(views, p.View())
	}

	ctx.JSON(http.StatusOK, utils.NewPaginated(views, total, page))
}

// GET /pools/:id includes current_price and next_tier.
func (h *PoolsHandler) GetByID(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	p, err := h.pools.GetByID(cctx, id)
	if err != nil {
		respondPoolError(ctx, err, "Could not fetch pool")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p.View())
}

// POST /pools/:id/join
func (h *PoolsHandler) Join(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req pool.JoinRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	p, m, err := h.pools.Join(cctx, id, userID, req.Quantity, h.now())
	if err != nil {
		respondPoolError(ctx, err, "Could not join pool")
		return
	}

	h.events.Emit(ctx.Request.Context(), events.PoolJoined, gin.H{
		"pool_id":          p.ID,
		"user_id":          userID,
		"quantity":         m.Quantity,
		"committed_amount": m.CommittedAmount,
		"current_quantity": p.CurrentQuantity,
		"status":           p.Status,
	})

	ctx.JSON(http.StatusOK, JoinResponse{Pool: p.View(), Member: m})
}
