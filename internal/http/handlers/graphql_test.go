package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geocoder89/rfphub/internal/domain/dashboard"
	"github.com/geocoder89/rfphub/internal/domain/rfp"
	"github.com/geocoder89/rfphub/internal/graphql"
	"github.com/geocoder89/rfphub/internal/http/handlers"
)

type fakeDashboard struct {
	gotBuyer string
}

func (f *fakeDashboard) DashboardCounts(_ context.Context, buyerID string) (dashboard.Counts, error) {
	f.gotBuyer = buyerID
	return dashboard.Counts{TotalRFPs: 4, Awarded: 1, Closed: 1, ActiveOffers: 7, TotalSpent: 300}, nil
}

func (f *fakeDashboard) RecentRFPs(_ context.Context, buyerID string, _ int) ([]rfp.RFP, error) {
	f.gotBuyer = buyerID
	return []rfp.RFP{sampleRFP(buyerID, rfp.StatusPublished)}, nil
}

type graphqlResult struct {
	Data struct {
		Dashboard struct {
			TotalRFPs    int     `json:"total_rfps"`
			ActiveOffers int     `json:"active_offers"`
			SuccessRate  float64 `json:"success_rate"`
		} `json:"dashboard"`
		RecentRFPs []struct {
			ID string `json:"id"`
		} `json:"recentRfps"`
	} `json:"data"`
	Errors []any `json:"errors"`
}

func TestGraphQLHandler(t *testing.T) {
	fd := &fakeDashboard{}
	schema, err := graphql.NewSchema(fd)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	h := handlers.NewGraphQLHandler(schema)
	r := setupRouter(http.MethodPost, "/graphql", authMW.RequireAuth(), h.Serve)

	w := doRequest(r, http.MethodPost, "/graphql", `{"query":"{ dashboard { total_rfps active_offers success_rate } recentRfps { id title } }"}`, "buyer:buyer-1")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	res := mustDecode[graphqlResult](t, w)

	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if res.Data.Dashboard.TotalRFPs != 4 || res.Data.Dashboard.ActiveOffers != 7 || res.Data.Dashboard.SuccessRate != 50 {
		t.Fatalf("unexpected dashboard %+v", res.Data.Dashboard)
	}
	if len(res.Data.RecentRFPs) != 1 || fd.gotBuyer != "buyer-1" {
		t.Fatalf("unexpected recent rfps %+v for %q", res.Data.RecentRFPs, fd.gotBuyer)
	}
}

func TestGraphQLHandler_Errors(t *testing.T) {
	schema, err := graphql.NewSchema(&fakeDashboard{})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	h := handlers.NewGraphQLHandler(schema)
	r := setupRouter(http.MethodPost, "/graphql", authMW.RequireAuth(), h.Serve)

	if w := doRequest(r, http.MethodPost, "/graphql", `{"query":"{ dashboard { total_rfps } }"}`, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous got %d, want 401", w.Code)
	}

	if w := doRequest(r, http.MethodPost, "/graphql", `{}`, "buyer:buyer-1"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing query got %d, want 400", w.Code)
	}

	w := doRequest(r, http.MethodPost, "/graphql", `{"query":"{ nope }"}`, "buyer:buyer-1")
	if w.Code != http.StatusOK {
		t.Fatalf("bad field got %d, want 200 with errors", w.Code)
	}
	res := mustDecode[graphqlResult](t, w)
	if len(res.Errors) == 0 {
		t.Fatalf("expected graphql errors, body=%s", w.Body.String())
	}
}
