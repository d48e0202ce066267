package offer

import (
	"errors"
	"testing"
	"time"
)

func TestSuggestCounteroffer(t *testing.T) {
	got := SuggestCounteroffer(1200, 1000, true)
	if got.SuggestedPrice != 1100 || got.MarketAverage != 1000 {
		t.Fatalf("unexpected suggestion %+v", got)
	}
	if len(got.NegotiationTips) != 3 {
		t.Fatalf("expected three tips, got %v", got.NegotiationTips)
	}

	noBudget := SuggestCounteroffer(999.99, 0, false)
	if noBudget.SuggestedPrice != 999.99 {
		t.Fatalf("without a budget the suggestion equals the price, got %v", noBudget.SuggestedPrice)
	}
}

func TestSuggestCounteroffer_RoundsToCents(t *testing.T) {
	got := SuggestCounteroffer(100.015, 100, true)
	if got.SuggestedPrice != 100.01 {
		t.Fatalf("expected rounding to cents, got %v", got.SuggestedPrice)
	}
}

func TestApply_OnlyPending(t *testing.T) {
	now := time.Now().UTC()
	price := 50.0

	o := Offer{Status: StatusAccepted, Price: 10}
	if err := o.Apply(UpdateRequest{Price: &price}, now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	o.Status = StatusPending
	if err := o.Apply(UpdateRequest{Price: &price}, now); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if o.Price != 50 {
		t.Fatalf("price not applied")
	}
}

func TestNew_Defaults(t *testing.T) {
	o := New(CreateRequest{Price: 10, Description: "  a long enough description ", DeliveryTime: " 2 weeks "}, "r1", "s1", nil, time.Now())
	if o.Status != StatusPending || o.Description != "a long enough description" || o.DeliveryTime != "2 weeks" {
		t.Fatalf("unexpected offer %+v", o)
	}
}
