package handlers

import (
	"net/http"
	"time"

	"github.com/geocoder89/rfphub/internal/graphql"
	"github.com/gin-gonic/gin"
	gql "github.com/graphql-go/graphql"
)

type GraphQLHandler struct {
	schema gql.Schema
}

func NewGraphQLHandler(schema gql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

// POST /graphql runs the dashboard schema for the authenticated caller.
// Resolver errors travel in the result's errors list with status 200.
func (h *GraphQLHandler) Serve(ctx *gin.Context) {
	if _, _, ok := caller(ctx); !ok {
		return
	}

	var req graphql.Request
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := opCtx(ctx, 5*time.Second)
	defer cancel()

	ctx.JSON(http.StatusOK, graphql.Execute(cctx, h.schema, req))
}
