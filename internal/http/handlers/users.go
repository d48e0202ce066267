package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/reputation"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
}

type SellerStatsReader interface {
	SellerStats(ctx context.Context, sellerID string) (reputation.Stats, error)
}

type UsersHandler struct {
	users UsersStore
	stats SellerStatsReader
	now   func() time.Time
}

func NewUsersHandler(users UsersStore, stats SellerStatsReader) *UsersHandler {
	return &UsersHandler{users: users, stats: stats, now: func() time.Time { return time.Now().UTC() }}
}

// GET /users/me
func (h *UsersHandler) Me(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// PUT /users/me changes only first_name, last_name and phone.
func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Empty() {
		RespondBadRequest(ctx, "At least one of first_name, last_name or phone is required", nil)
		return
	}

	cctx, cancel := opCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, userID, req)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// GET /users/:id/reputation
func (h *UsersHandler) Reputation(ctx *gin.Context) {
	id, ok := pathUUID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	if _, err := h.users.GetByID(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	stats, err := h.stats.SellerStats(cctx, id)
	if err != nil {
		RespondInternal(ctx, "Could not compute reputation")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, reputation.Compute(id, stats, h.now()))
}
