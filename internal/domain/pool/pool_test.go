package pool

import (
	"errors"
	"testing"
	"time"
)

var tiers = []Tier{
	{Quantity: 10, DiscountPercentage: 5},
	{Quantity: 50, DiscountPercentage: 10},
	{Quantity: 100, DiscountPercentage: 20},
}

func TestValidateTiers(t *testing.T) {
	if err := ValidateTiers(tiers); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	bad := [][]Tier{
		{{Quantity: 10, DiscountPercentage: 5}, {Quantity: 10, DiscountPercentage: 8}},
		{{Quantity: 10, DiscountPercentage: 0}},
		{{Quantity: 10, DiscountPercentage: 100}},
		{{Quantity: 20, DiscountPercentage: 5}, {Quantity: 10, DiscountPercentage: 8}},
	}
	for _, b := range bad {
		if err := ValidateTiers(b); !errors.Is(err, ErrInvalidTiers) {
			t.Fatalf("expected ErrInvalidTiers for %v, got %v", b, err)
		}
	}
}

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		qty  int
		want float64
	}{
		{0, 20},
		{9, 20},
		{10, 19},
		{49, 19},
		{50, 18},
		{250, 16},
	}

	for _, tt := range tests {
		if got := UnitPrice(20, tiers, tt.qty); got != tt.want {
			t.Fatalf("UnitPrice(qty=%d) = %v, want %v", tt.qty, got, tt.want)
		}
	}

	if got := UnitPrice(9.99, []Tier{{Quantity: 1, DiscountPercentage: 33}}, 1); got != 6.69 {
		t.Fatalf("expected rounding to cents, got %v", got)
	}
}

func TestNextTier(t *testing.T) {
	if nt := NextTier(tiers, 10); nt == nil || nt.Quantity != 50 {
		t.Fatalf("expected next tier 50, got %+v", nt)
	}
	if nt := NextTier(tiers, 100); nt != nil {
		t.Fatalf("expected no next tier, got %+v", nt)
	}
}

func TestJoin(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p := Pool{ID: "p1", Status: StatusActive, BasePrice: 20, Tiers: tiers, MinQuantity: 5, TargetQuantity: 60, CurrentQuantity: 45, Deadline: now.Add(time.Hour)}

	m, err := p.Join("u1", 5, now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.CurrentQuantity != 50 || m.CommittedAmount != 90 {
		t.Fatalf("unexpected join result pool=%d committed=%v", p.CurrentQuantity, m.CommittedAmount)
	}
	if p.Status != StatusActive {
		t.Fatalf("pool should still be active")
	}

	if _, err := p.Join("u2", 10, now); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.Status != StatusCompleted {
		t.Fatalf("reaching the target should complete the pool, got %s", p.Status)
	}

	if _, err := p.Join("u3", 1, now); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestJoin_AfterDeadline(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p := Pool{Status: StatusActive, Deadline: now}

	if _, err := p.Join("u1", 1, now); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}
}

func TestSweepOutcome(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	p := Pool{Status: StatusActive, MinQuantity: 10, CurrentQuantity: 12, Deadline: now.Add(-time.Minute)}
	if s, ok := p.SweepOutcome(now); !ok || s != StatusCompleted {
		t.Fatalf("expected completed, got %s %v", s, ok)
	}

	p.CurrentQuantity = 3
	if s, ok := p.SweepOutcome(now); !ok || s != StatusExpired {
		t.Fatalf("expected expired, got %s %v", s, ok)
	}

	p.Deadline = now.Add(time.Minute)
	if _, ok := p.SweepOutcome(now); ok {
		t.Fatalf("pool before deadline must be left alone")
	}
}

func TestNew_Validation(t *testing.T) {
	now := time.Now().UTC()
	req := CreateRequest{Name: "Bulk chairs", MinQuantity: 10, TargetQuantity: 5, BasePrice: 10, Deadline: now.Add(time.Hour)}

	if _, err := New(req, "u", now); !errors.Is(err, ErrInvalidQuantities) {
		t.Fatalf("expected ErrInvalidQuantities, got %v", err)
	}

	req.TargetQuantity = 20
	p, err := New(req, "u", now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.Status != StatusActive || p.Tiers == nil {
		t.Fatalf("unexpected pool %+v", p)
	}
}
