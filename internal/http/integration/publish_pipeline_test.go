package integration__test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/notifications"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/geocoder89/rfphub/internal/queue/worker"
	"github.com/geocoder89/rfphub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifications.OfferNotificationInput
}

func (n *recordingNotifier) SendOfferNotification(ctx context.Context, in notifications.OfferNotificationInput) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, in)
	return "msg-" + in.Kind, nil
}

func newTestWorker(pool *pgxpool.Pool, notifier notifications.Notifier) *worker.Worker {
	prom := observability.NewProm(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	handlers := worker.Handlers(worker.Deps{
		RFPs:       postgres.NewRFPsRepo(pool, prom, jobsRepo),
		Offers:     postgres.NewOffersRepo(pool, prom, jobsRepo),
		Users:      postgres.NewUsersRepo(pool, prom),
		Deliveries: postgres.NewNotificationDeliveriesRepo(pool, prom),
		Pools:      postgres.NewPoolsRepo(pool, prom),
		Notifier:   notifier,
		Logger:     logger,
	})

	return worker.New(worker.Config{
		PollInterval:  10 * time.Millisecond,
		WorkerID:      "test-worker",
		Concurrency:   1,
		ShutdownGrace: 1 * time.Second,
	}, jobsRepo, handlers, prom, logger)
}

// drain processes jobs until the queue is empty.
func drain(t *testing.T, wk *worker.Worker) int {
	t.Helper()

	n := 0
	for i := 0; i < 20; i++ {
		processed, err := wk.ProcessOne(context.Background())
		if err != nil {
			t.Fatalf("ProcessOne: %v", err)
		}
		if !processed {
			return n
		}
		n++
	}
	t.Fatalf("queue did not drain")
	return n
}

func TestRFPPipeline_EndToEnd(t *testing.T) {
	router, pool, _ := setupRouter(t)
	ctx := context.Background()

	buyer := register(t, router, "buyer@example.com", "buyer")
	seller := register(t, router, "seller@example.com", "seller")

	deadline := time.Now().Add(14 * 24 * time.Hour).UTC().Format(time.RFC3339)

	// buyer creates a draft rfp
	w, _ := doAuthed(router, http.MethodPost, "/api/v1/rfps", `{
		"title":"Office fit-out",
		"description":"Fit out two floors of open plan office space.",
		"category":"construction",
		"budget_min":1000,
		"budget_max":2000,
		"deadline":"`+deadline+`"
	}`, buyer.AccessToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create rfp got %d body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustReadJSON(t, w, &created)
	if created.Status != "draft" {
		t.Fatalf("expected draft, got %s", created.Status)
	}

	// sellers cannot bid on a draft
	w, _ = doAuthed(router, http.MethodPost, "/api/v1/rfps/"+created.ID+"/offers", `{
		"price":1500,"description":"Full fit-out with our own crew.","delivery_time":"6 weeks"
	}`, seller.AccessToken)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("offer on draft got %d body=%s", w.Code, w.Body.String())
	}

	w, _ = doAuthed(router, http.MethodPost, "/api/v1/rfps/"+created.ID+"/publish", "", buyer.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("publish got %d body=%s", w.Code, w.Body.String())
	}

	w, _ = doAuthed(router, http.MethodPost, "/api/v1/rfps/"+created.ID+"/offers", `{
		"price":1500,"description":"Full fit-out with our own crew.","delivery_time":"6 weeks"
	}`, seller.AccessToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create offer got %d body=%s", w.Code, w.Body.String())
	}

	var offerResp struct {
		ID string `json:"id"`
	}
	mustReadJSON(t, w, &offerResp)

	w, _ = doAuthed(router, http.MethodPost, "/api/v1/rfps/offers/"+offerResp.ID+"/accept", "", buyer.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("accept got %d body=%s", w.Code, w.Body.String())
	}

	var accepted struct {
		Offer struct {
			Status string `json:"status"`
		} `json:"offer"`
		RFP struct {
			Status string `json:"status"`
		} `json:"rfp"`
		Order struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
	}
	mustReadJSON(t, w, &accepted)
	if accepted.Offer.Status != "accepted" || accepted.RFP.Status != "awarded" || accepted.Order.Status != "pending" {
		t.Fatalf("unexpected accept result %s", w.Body.String())
	}

	// run the queued summarize and notify jobs
	notifier := &recordingNotifier{}
	wk := newTestWorker(pool, notifier)

	if n := drain(t, wk); n != 3 {
		t.Fatalf("expected 3 jobs (summarize, offer created, offer accepted), got %d", n)
	}

	var summary *string
	if err := pool.QueryRow(ctx, `SELECT ai_summary FROM rfps WHERE id=$1`, created.ID).Scan(&summary); err != nil {
		t.Fatalf("select rfp: %v", err)
	}
	if summary == nil || *summary == "" {
		t.Fatalf("expected ai_summary to be set")
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", notifier.sent)
	}
	recipients := map[string]string{}
	for _, s := range notifier.sent {
		recipients[s.Kind] = s.RecipientID
	}
	if recipients["offer.created"] != buyer.UserID || recipients["offer.accepted"] != seller.UserID {
		t.Fatalf("unexpected recipients %+v", recipients)
	}

	var sent int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM notification_deliveries WHERE status='sent'`).Scan(&sent); err != nil {
		t.Fatalf("count deliveries: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 sent deliveries, got %d", sent)
	}

	// seller drives fulfilment
	w, _ = doAuthed(router, http.MethodPost, "/api/v1/orders/"+accepted.Order.ID+"/status", `{"status":"confirmed"}`, seller.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm order got %d body=%s", w.Code, w.Body.String())
	}
}
