package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/organization"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type OrganizationsStore interface {
	CreateAndAssign(ctx context.Context, org organization.Organization, userID string) error
	GetByID(ctx context.Context, id string) (organization.Organization, error)
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
}

type OrganizationsHandler struct {
	orgs OrganizationsStore
}

func NewOrganizationsHandler(orgs OrganizationsStore) *OrganizationsHandler {
	return &OrganizationsHandler{orgs: orgs}
}

// POST /organizations creates an organization and moves the caller into it.
func (h *OrganizationsHandler) Create(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	var req organization.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	org := organization.New(req)

	cctx, cancel := opCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.orgs.CreateAndAssign(cctx, org, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Caller no longer exists")
			return
		}
		RespondInternal(ctx, "Could not create organization")
		return
	}

	ctx.JSON(http.StatusCreated, org)
}

// GET /organizations/:id is limited to members and admins.
func (h *OrganizationsHandler) GetByID(ctx *gin.Context) {
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

	org, err := h.orgs.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			RespondNotFound(ctx, "Organization not found")
			return
		}
		RespondInternal(ctx, "Could not fetch organization")
		return
	}

	if role != string(user.RoleAdmin) {
		member, err := h.orgs.IsMember(cctx, id, userID)
		if err != nil {
			RespondInternal(ctx, "Could not fetch organization")
			return
		}
		if !member {
			RespondForbidden(ctx, "Not a member of this organization")
			return
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, org)
}
