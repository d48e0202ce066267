package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/gin-gonic/gin"
)

// opCtx bounds one handler's store calls while keeping the request's trace
// and caller values.
func opCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

// caller returns the authenticated user id and role. Routes using it sit
// behind RequireAuth, so a missing id is answered with 401.
func caller(ctx *gin.Context) (string, string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return "", "", false
	}
	role, _ := middlewares.RoleFromContext(ctx)
	return id, role, true
}

// viewer is the optional caller on routes that also serve anonymous requests.
func viewer(ctx *gin.Context) (string, bool) {
	id, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)
	return id, role == string(user.RoleAdmin)
}

func pathUUID(ctx *gin.Context, name string) (string, bool) {
	id := ctx.Param(name)
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid id", nil)
		return "", false
	}
	return id, true
}

func pageFromQuery(ctx *gin.Context) (utils.Page, bool) {
	p, ok := utils.ParsePage(ctx.Query("page"), ctx.Query("per_page"))
	if !ok {
		RespondBadRequest(ctx, "page must be >= 1 and per_page between 1 and 100", nil)
		return utils.Page{}, false
	}
	return p, true
}
