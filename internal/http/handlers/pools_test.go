package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/pool"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/http/handlers"
)

type fakePoolsRepo struct {
	items   map[string]pool.Pool
	members []pool.Member
}

func newFakePoolsRepo(items ...pool.Pool) *fakePoolsRepo {
	f := &fakePoolsRepo{items: map[string]pool.Pool{}}
	for _, p := range items {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakePoolsRepo) Create(_ context.Context, p pool.Pool) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakePoolsRepo) GetByID(_ context.Context, id string) (pool.Pool, error) {
	p, ok := f.items[id]
	if !ok {
		return pool.Pool{}, pool.ErrNotFound
	}
	return p, nil
}

func (f *fakePoolsRepo) List(_ context.Context, status pool.Status, _, _ int) ([]pool.Pool, int, error) {
	var out []pool.Pool
	for _, p := range f.items {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (f *fakePoolsRepo) Join(_ context.Context, id, userID string, qty int, now time.Time) (pool.Pool, pool.Member, error) {
	p, ok := f.items[id]
	if !ok {
		return pool.Pool{}, pool.Member{}, pool.ErrNotFound
	}
	m, err := p.Join(userID, qty, now)
	if err != nil {
		return pool.Pool{}, pool.Member{}, err
	}
	f.items[id] = p
	f.members = append(f.members, m)
	return p, m, nil
}

func samplePool(t *testing.T, status pool.Status) pool.Pool {
	t.Helper()
	p, err := pool.New(pool.CreateRequest{
		Name:           "Office chairs",
		MinQuantity:    5,
		TargetQuantity: 20,
		BasePrice:      100,
		Tiers: []pool.Tier{
			{Quantity: 10, DiscountPercentage: 10},
			{Quantity: 20, DiscountPercentage: 20},
		},
		Deadline: time.Now().UTC().Add(48 * time.Hour),
	}, "creator-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	p.Status = status
	return p
}

func TestCreatePoolHandler(t *testing.T) {
	deadline := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "success",
			body:     `{"name":"Office chairs","min_quantity":5,"target_quantity":20,"base_price":100,"tiers":[{"quantity":10,"discount_percentage":10}],"deadline":"` + deadline + `"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "tiers_not_increasing",
			body:     `{"name":"Office chairs","min_quantity":5,"target_quantity":20,"base_price":100,"tiers":[{"quantity":10,"discount_percentage":10},{"quantity":5,"discount_percentage":20}],"deadline":"` + deadline + `"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_tiers",
		},
		{
			name:     "target_below_min",
			body:     `{"name":"Office chairs","min_quantity":20,"target_quantity":5,"base_price":100,"deadline":"` + deadline + `"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_quantities",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePoolsRepo()
			h := handlers.NewPoolsHandler(repo, events.NewEmitter(nil, nil))
			r := setupRouter(http.MethodPost, "/pools", authMW.RequireAuth(), h.Create)

			w := doRequest(r, http.MethodPost, "/pools", tt.body, "buyer:buyer-1")
			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Fatalf("got error code %q, want %q", got, tt.wantErr)
				}
				return
			}

			v := mustDecode[pool.View](t, w)
			if v.Status != pool.StatusActive || v.CurrentPrice != 100 || v.NextTier == nil || v.NextTier.Quantity != 10 {
				t.Fatalf("unexpected view %+v", v)
			}
			if len(repo.items) != 1 {
				t.Fatalf("expected pool to be stored")
			}
		})
	}
}

func TestJoinPoolHandler(t *testing.T) {
	t.Run("success_prices_at_reached_tier", func(t *testing.T) {
		p := samplePool(t, pool.StatusActive)
		repo := newFakePoolsRepo(p)
		pub := &recordingPublisher{}
		h := handlers.NewPoolsHandler(repo, events.NewEmitter(pub, nil))
		r := setupRouter(http.MethodPost, "/pools/:id/join", authMW.RequireAuth(), h.Join)

		w := doRequest(r, http.MethodPost, "/pools/"+p.ID+"/join", `{"quantity":12}`, "buyer:buyer-1")
		if w.Code != http.StatusOK {
			t.Fatalf("got %d body=%s", w.Code, w.Body.String())
		}

		resp := mustDecode[handlers.JoinResponse](t, w)
		if resp.Member.CommittedAmount != 1080 || resp.Pool.CurrentQuantity != 12 || resp.Pool.CurrentPrice != 90 {
			t.Fatalf("unexpected join response %+v", resp)
		}
		if types := pub.Types(); len(types) != 1 || types[0] != events.PoolJoined {
			t.Fatalf("expected pool.joined event, got %v", types)
		}
	})

	t.Run("not_active", func(t *testing.T) {
		p := samplePool(t, pool.StatusCompleted)
		repo := newFakePoolsRepo(p)
		pub := &recordingPublisher{}
		h := handlers.NewPoolsHandler(repo, events.NewEmitter(pub, nil))
		r := setupRouter(http.MethodPost, "/pools/:id/join", authMW.RequireAuth(), h.Join)

		w := doRequest(r, http.MethodPost, "/pools/"+p.ID+"/join", `{"quantity":1}`, "buyer:buyer-1")
		if w.Code != http.StatusBadRequest || errorCode(t, w) != "pool_not_active" {
			t.Fatalf("got %d body=%s", w.Code, w.Body.String())
		}
		if len(pub.Types()) != 0 || len(repo.members) != 0 {
			t.Fatalf("failed join must not record a member or emit")
		}
	})

	t.Run("zero_quantity", func(t *testing.T) {
		p := samplePool(t, pool.StatusActive)
		h := handlers.NewPoolsHandler(newFakePoolsRepo(p), nil)
		r := setupRouter(http.MethodPost, "/pools/:id/join", authMW.RequireAuth(), h.Join)

		if w := doRequest(r, http.MethodPost, "/pools/"+p.ID+"/join", `{"quantity":0}`, "buyer:buyer-1"); w.Code != http.StatusBadRequest {
			t.Fatalf("got %d, want 400", w.Code)
		}
	})
}

func TestGetPoolHandler_ShowsLivePricing(t *testing.T) {
	p := samplePool(t, pool.StatusActive)
	p.CurrentQuantity = 10
	h := handlers.NewPoolsHandler(newFakePoolsRepo(p), nil)
	r := setupRouter(http.MethodGet, "/pools/:id", nil, h.GetByID)

	w := doRequest(r, http.MethodGet, "/pools/"+p.ID, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	v := mustDecode[pool.View](t, w)
	if v.CurrentPrice != 90 || v.NextTier == nil || v.NextTier.Quantity != 20 {
		t.Fatalf("unexpected view %+v", v)
	}
}
