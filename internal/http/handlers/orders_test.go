package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/order"
	"github.com/geocoder89/rfphub/internal/http/handlers"
	"github.com/google/uuid"
)

type fakeOrdersRepo struct {
	items map[string]order.Order
}

func (f *fakeOrdersRepo) ListForUser(_ context.Context, userID string, _, _ int) ([]order.Order, int, error) {
	var out []order.Order
	for _, o := range f.items {
		if o.BuyerID == userID || o.SellerID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrdersRepo) GetByID(_ context.Context, id string) (order.Order, error) {
	o, ok := f.items[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrdersRepo) UpdateStatus(_ context.Context, id string, actor order.Actor, next order.Status) (order.Order, error) {
	o, ok := f.items[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	if err := o.Transition(next, actor, time.Now().UTC()); err != nil {
		return order.Order{}, err
	}
	f.items[id] = o
	return o, nil
}

func newOrdersFixture() (*fakeOrdersRepo, order.Order) {
	o := order.NewForOffer("buyer-1", "seller-1", uuid.NewString(), uuid.NewString(), 500, time.Now().UTC())
	return &fakeOrdersRepo{items: map[string]order.Order{o.ID: o}}, o
}

func TestGetOrderHandler_HidesFromStrangers(t *testing.T) {
	repo, o := newOrdersFixture()
	h := handlers.NewOrdersHandler(repo)
	r := setupRouter(http.MethodGet, "/orders/:id", authMW.RequireAuth(), h.GetByID)

	tests := []struct {
		token    string
		wantCode int
	}{
		{"buyer:buyer-1", http.StatusOK},
		{"seller:seller-1", http.StatusOK},
		{"admin:root", http.StatusOK},
		{"buyer:buyer-2", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := doRequest(r, http.MethodGet, "/orders/"+o.ID, "", tt.token)
		if w.Code != tt.wantCode {
			t.Fatalf("%s: got %d, want %d", tt.token, w.Code, tt.wantCode)
		}
	}
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		body     string
		wantCode int
		wantErr  string
		want     order.Status
	}{
		{"seller_confirms", "seller:seller-1", `{"status":"confirmed"}`, http.StatusOK, "", order.StatusConfirmed},
		{"buyer_cannot_confirm", "buyer:buyer-1", `{"status":"confirmed"}`, http.StatusForbidden, "forbidden", order.StatusPending},
		{"buyer_cancels", "buyer:buyer-1", `{"status":"cancelled"}`, http.StatusOK, "", order.StatusCancelled},
		{"skip_ahead", "seller:seller-1", `{"status":"delivered"}`, http.StatusConflict, "invalid_transition", order.StatusPending},
		{"unknown_status", "seller:seller-1", `{"status":"lost"}`, http.StatusBadRequest, "invalid_request", order.StatusPending},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, o := newOrdersFixture()
			h := handlers.NewOrdersHandler(repo)
			r := setupRouter(http.MethodPost, "/orders/:id/status", authMW.RequireAuth(), h.UpdateStatus)

			w := doRequest(r, http.MethodPost, "/orders/"+o.ID+"/status", tt.body, tt.token)
			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Fatalf("got error code %q, want %q", got, tt.wantErr)
				}
			}
			if got := repo.items[o.ID].Status; got != tt.want {
				t.Fatalf("stored status %s, want %s", got, tt.want)
			}
		})
	}
}

type totalOnly struct {
	Total int `json:"total"`
}

func TestListOrdersHandler(t *testing.T) {
	repo, _ := newOrdersFixture()
	h := handlers.NewOrdersHandler(repo)
	r := setupRouter(http.MethodGet, "/orders", authMW.RequireAuth(), h.List)

	w := doRequest(r, http.MethodGet, "/orders", "", "seller:seller-1")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if page := mustDecode[totalOnly](t, w); page.Total != 1 {
		t.Fatalf("seller expected 1 order, got %d", page.Total)
	}

	w = doRequest(r, http.MethodGet, "/orders", "", "buyer:buyer-9")
	if page := mustDecode[totalOnly](t, w); page.Total != 0 {
		t.Fatalf("stranger expected 0 orders, got %d", page.Total)
	}

	if w := doRequest(r, http.MethodGet, "/orders", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous got %d, want 401", w.Code)
	}
}
