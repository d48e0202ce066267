package rfp

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestStatusMachine(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusClosed, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusAwarded, false},
		{StatusPublished, StatusAwarded, true},
		{StatusPublished, StatusClosed, true},
		{StatusPublished, StatusDraft, false},
		{StatusClosed, StatusPublished, false},
		{StatusAwarded, StatusClosed, false},
		{StatusCancelled, StatusPublished, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s: got %v want %v", tt.from, tt.to, got, tt.want)
		}
	}

	for _, s := range []Status{StatusClosed, StatusAwarded, StatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if StatusDraft.IsTerminal() || StatusPublished.IsTerminal() {
		t.Fatalf("draft and published are not terminal")
	}
}

func TestNew_ValidatesBudgetAndDeadline(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	base := CreateRequest{
		Title:       "Build a portal",
		Description: "We need a customer portal with SSO.",
		Category:    "Software",
		Deadline:    now.Add(30 * 24 * time.Hour),
	}

	req := base
	req.BudgetMin, req.BudgetMax = ptr(5000.0), ptr(5000.0)
	if _, err := New(req, "buyer-1", nil, now); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}

	req = base
	req.Deadline = now.Add(-time.Hour)
	if _, err := New(req, "buyer-1", nil, now); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}

	r, err := New(base, "buyer-1", nil, now)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if r.Status != StatusDraft || r.Category != "software" || r.BuyerID != "buyer-1" {
		t.Fatalf("unexpected rfp %+v", r)
	}
	if r.Requirements.Category != "software" {
		t.Fatalf("requirements should carry the category, got %q", r.Requirements.Category)
	}
}

func TestApply_RechecksBudgetOnMergedRecord(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := RFP{Title: "x", BudgetMin: ptr(100.0), BudgetMax: ptr(200.0), Status: StatusDraft}

	if err := r.Apply(UpdateRequest{BudgetMin: ptr(250.0)}, now); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	if *r.BudgetMin != 100 {
		t.Fatalf("failed update must not mutate the record")
	}

	if err := r.Apply(UpdateRequest{BudgetMax: ptr(300.0), Title: ptr(" New title ")}, now); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if r.Title != "New title" || *r.BudgetMax != 300 || !r.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected merged record %+v", r)
	}
}

func TestVisibleTo(t *testing.T) {
	r := RFP{BuyerID: "b1", IsPrivate: true}

	if r.VisibleTo("someone", false) {
		t.Fatalf("private rfp must be hidden from others")
	}
	if !r.VisibleTo("b1", false) || !r.VisibleTo("x", true) {
		t.Fatalf("buyer and admin must see private rfp")
	}
	if !(RFP{}).VisibleTo("", false) {
		t.Fatalf("public rfp is visible to anyone")
	}
}

func TestNormalizeRequirements(t *testing.T) {
	r := RFP{
		Description: "Build a React dashboard backed by a SQL database. Must be delivered within 8 weeks. ISO 27001 certified vendors preferred.",
		BudgetMin:   ptr(1000.0),
		BudgetMax:   ptr(3000.0),
		Location:    ptr("Remote"),
		Deadline:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	got := NormalizeRequirements(r)

	if got.Category != "software" {
		t.Fatalf("expected guessed category software, got %q", got.Category)
	}
	if got.BudgetRange != "$1000.00 - $3000.00" {
		t.Fatalf("unexpected budget range %q", got.BudgetRange)
	}
	if got.Timeline != "by 2026-09-01" {
		t.Fatalf("unexpected timeline %q", got.Timeline)
	}
	if len(got.Constraints) != 1 || !strings.HasPrefix(got.Constraints[0], "Must be delivered") {
		t.Fatalf("unexpected constraints %v", got.Constraints)
	}
	if len(got.TechnicalRequirements) == 0 {
		t.Fatalf("expected technical requirements")
	}
	if len(got.QualityStandards) != 1 {
		t.Fatalf("expected one quality standard, got %v", got.QualityStandards)
	}
	if len(got.LocationPreferences) != 1 || got.LocationPreferences[0] != "Remote" {
		t.Fatalf("unexpected location preferences %v", got.LocationPreferences)
	}
}

func TestNormalizeRequirements_NoBudget(t *testing.T) {
	got := NormalizeRequirements(RFP{Description: "Need help"})
	if got.BudgetRange != notSpecified || got.Timeline != notSpecified {
		t.Fatalf("expected not_specified fields, got %+v", got)
	}
	if got.Category != "general" {
		t.Fatalf("expected general category, got %q", got.Category)
	}
}

func TestSummarize(t *testing.T) {
	r := RFP{
		Category:  "consulting",
		BudgetMin: ptr(500.0),
		BudgetMax: ptr(900.0),
		Deadline:  time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		Requirements: Requirements{
			Specifications: []string{"Review our onboarding process"},
		},
	}

	got := Summarize(r)
	want := "RFP for consulting services with budget range $500.00 - $900.00, due 2026-07-04. Key requirement: Review our onboarding process."
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestBudgetMidpoint(t *testing.T) {
	if _, ok := (RFP{BudgetMin: ptr(1.0)}).BudgetMidpoint(); ok {
		t.Fatalf("expected no midpoint with one bound")
	}
	mid, ok := RFP{BudgetMin: ptr(100.0), BudgetMax: ptr(300.0)}.BudgetMidpoint()
	if !ok || mid != 200 {
		t.Fatalf("unexpected midpoint %v %v", mid, ok)
	}
}
