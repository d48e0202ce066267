// Package graphql exposes the buyer dashboard as a small GraphQL schema.
package graphql

import (
	"context"
	"errors"

	"github.com/geocoder89/rfphub/internal/actorctx"
	"github.com/geocoder89/rfphub/internal/domain/dashboard"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	gql "github.com/graphql-go/graphql"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

var ErrUnauthenticated = errors.New("authentication required")

// Reader is implemented by the postgres stats repository.
type Reader interface {
	DashboardCounts(ctx context.Context, buyerID string) (dashboard.Counts, error)
	RecentRFPs(ctx context.Context, buyerID string, limit int) ([]rfp.RFP, error)
}

var statsType = gql.NewObject(gql.ObjectConfig{
	Name: "DashboardStats",
	Fields: gql.Fields{
		"total_rfps":    &gql.Field{Type: gql.Int},
		"active_offers": &gql.Field{Type: gql.Int},
		"total_spent":   &gql.Field{Type: gql.Float},
		"success_rate":  &gql.Field{Type: gql.Float},
	},
})

var rfpType = gql.NewObject(gql.ObjectConfig{
	Name: "RFP",
	Fields: gql.Fields{
		"id":         &gql.Field{Type: gql.String},
		"title":      &gql.Field{Type: gql.String},
		"category":   &gql.Field{Type: gql.String},
		"status":     &gql.Field{Type: gql.String},
		"budget_min": &gql.Field{Type: gql.Float},
		"budget_max": &gql.Field{Type: gql.Float},
		"deadline":   &gql.Field{Type: gql.DateTime},
		"is_private": &gql.Field{Type: gql.Boolean},
		"created_at": &gql.Field{Type: gql.DateTime},
	},
})

func NewSchema(r Reader) (gql.Schema, error) {
	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"dashboard": &gql.Field{
				Type: statsType,
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					userID, ok := actorctx.UserIDFrom(p.Context)
					if !ok {
						return nil, ErrUnauthenticated
					}

					counts, err := r.DashboardCounts(p.Context, userID)
					if err != nil {
						return nil, err
					}

					s := dashboard.FromCounts(counts)
					return map[string]interface{}{
						"total_rfps":    s.TotalRFPs,
						"active_offers": s.ActiveOffers,
						"total_spent":   s.TotalSpent,
						"success_rate":  s.SuccessRate,
					}, nil
				},
			},
			"recentRfps": &gql.Field{
				Type: gql.NewList(rfpType),
				Args: gql.FieldConfigArgument{
					"limit": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: defaultRecentLimit},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					userID, ok := actorctx.UserIDFrom(p.Context)
					if !ok {
						return nil, ErrUnauthenticated
					}

					limit, _ := p.Args["limit"].(int)
					if limit <= 0 {
						limit = defaultRecentLimit
					}
					if limit > maxRecentLimit {
						limit = maxRecentLimit
					}

					items, err := r.RecentRFPs(p.Context, userID, limit)
					if err != nil {
						return nil, err
					}

					out := make([]map[string]interface{}, 0, len(items))
					for _, x := range items {
						out = append(out, rfpFields(x))
					}
					return out, nil
				},
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{Query: query})
}

func rfpFields(x rfp.RFP) map[string]interface{} {
	m := map[string]interface{}{
		"id":         x.ID,
		"title":      x.Title,
		"category":   x.Category,
		"status":     string(x.Status),
		"deadline":   x.Deadline,
		"is_private": x.IsPrivate,
		"created_at": x.CreatedAt,
	}
	if x.BudgetMin != nil {
		m["budget_min"] = *x.BudgetMin
	}
	if x.BudgetMax != nil {
		m["budget_max"] = *x.BudgetMax
	}
	return m
}

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Execute runs req against schema with ctx carrying the caller.
func Execute(ctx context.Context, schema gql.Schema, req Request) *gql.Result {
	return gql.Do(gql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
