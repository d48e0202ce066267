package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/order"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

type OrdersStore interface {
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]order.Order, int, error)
	GetByID(ctx context.Context, id string) (order.Order, error)
	UpdateStatus(ctx context.Context, id string, actor order.Actor, next order.Status) (order.Order, error)
}

type OrdersHandler struct {
	orders OrdersStore
}

func NewOrdersHandler(orders OrdersStore) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

func actorFrom(userID, role string) order.Actor {
	return order.Actor{UserID: userID, IsAdmin: role == string(user.RoleAdmin)}
}

// GET /orders lists orders where the caller is buyer or seller.
func (h *OrdersHandler) List(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}
	page, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	items, total, err := h.orders.ListForUser(cctx, userID, page.PerPage, page.Offset())
	if err != nil {
		RespondInternal(ctx, "Could not list orders")
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPaginated(items, total, page))
}

// GET /orders/:id answers 404 to callers outside the order.
func (h *OrdersHandler) GetByID(ctx *gin.Context) {
	userID, role, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		RespondInternal(ctx, "Could not fetch order")
		return
	}

	if !o.Involves(actorFrom(userID, role)) {
		RespondNotFound(ctx, "Order not found")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, o)
}

// POST /orders/:id/status
func (h *OrdersHandler) UpdateStatus(ctx *gin.Context) {
	userID, role, ok := caller(ctx)
	if !ok {
		return
	}
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	o, err := h.orders.UpdateStatus(cctx, id, actorFrom(userID, role), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			RespondNotFound(ctx, "Order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			RespondConflict(ctx, "invalid_transition", err.Error())
		case errors.Is(err, order.ErrNotAllowed):
			RespondForbidden(ctx, err.Error())
		default:
			RespondInternal(ctx, "Could not update order")
		}
		return
	}

	ctx.JSON(http.StatusOK, o)
}
