package rfp

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
	StatusAwarded   Status = "awarded"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusCancelled, StatusClosed},
	StatusPublished: {StatusClosed, StatusAwarded, StatusCancelled},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusClosed, StatusAwarded, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("rfp not found")
	ErrInvalidBudget     = errors.New("budget_max must be greater than budget_min")
	ErrDeadlinePassed    = errors.New("deadline must be in the future")
	ErrInvalidTransition = errors.New("invalid rfp status transition")
	ErrNotDraft          = errors.New("only draft rfps can be published")
	ErrNotOpen           = errors.New("rfp is not open")
	ErrForbidden         = errors.New("only the buyer may manage this rfp")
)

type RFP struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	BudgetMin      *float64     `json:"budget_min,omitempty"`
	BudgetMax      *float64     `json:"budget_max,omitempty"`
	Deadline       time.Time    `json:"deadline"`
	Location       *string      `json:"location,omitempty"`
	Requirements   Requirements `json:"requirements"`
	Status         Status       `json:"status"`
	BuyerID        string       `json:"buyer_id"`
	OrganizationID *string      `json:"organization_id,omitempty"`
	IsPrivate      bool         `json:"is_private"`
	AISummary      *string      `json:"ai_summary,omitempty"`
	AwardedOfferID *string      `json:"awarded_offer_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type CreateRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=200"`
	Description string    `json:"description" binding:"required,min=10,max=10000"`
	Category    string    `json:"category" binding:"required,max=100"`
	BudgetMin   *float64  `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax   *float64  `json:"budget_max" binding:"omitempty,gt=0"`
	Deadline    time.Time `json:"deadline" binding:"required"`
	Location    *string   `json:"location" binding:"omitempty,max=200"`
	IsPrivate   bool      `json:"is_private"`
}

// UpdateRequest is a partial update; nil fields are left alone.
type UpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=200"`
	Description *string    `json:"description" binding:"omitempty,min=10,max=10000"`
	Category    *string    `json:"category" binding:"omitempty,min=1,max=100"`
	BudgetMin   *float64   `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax   *float64   `json:"budget_max" binding:"omitempty,gt=0"`
	Deadline    *time.Time `json:"deadline"`
	Location    *string    `json:"location" binding:"omitempty,max=200"`
	IsPrivate   *bool      `json:"is_private"`
}

type ListFilter struct {
	Category string
	Status   Status
	ViewerID string // private rfps are only listed for their buyer
	Limit    int
	Offset   int
}

func ValidateBudget(min, max *float64) error {
	if min != nil && max != nil && *max <= *min {
		return ErrInvalidBudget
	}
	return nil
}

func New(req CreateRequest, buyerID string, orgID *string, now time.Time) (RFP, error) {
	if err := ValidateBudget(req.BudgetMin, req.BudgetMax); err != nil {
		return RFP{}, err
	}
	if !req.Deadline.After(now) {
		return RFP{}, ErrDeadlinePassed
	}

	r := RFP{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Category:       strings.ToLower(strings.TrimSpace(req.Category)),
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		Deadline:       req.Deadline.UTC(),
		Location:       req.Location,
		Status:         StatusDraft,
		BuyerID:        buyerID,
		OrganizationID: orgID,
		IsPrivate:      req.IsPrivate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.Requirements = NormalizeRequirements(r)

	return r, nil
}

// Apply merges a partial update and re-checks the budget on the merged record.
func (r *RFP) Apply(req UpdateRequest, now time.Time) error {
	merged := *r

	if req.Title != nil {
		merged.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		merged.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		merged.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.BudgetMin != nil {
		merged.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax != nil {
		merged.BudgetMax = req.BudgetMax
	}
	if req.Deadline != nil {
		if !req.Deadline.After(now) {
			return ErrDeadlinePassed
		}
		merged.Deadline = req.Deadline.UTC()
	}
	if req.Location != nil {
		merged.Location = req.Location
	}
	if req.IsPrivate != nil {
		merged.IsPrivate = *req.IsPrivate
	}

	if err := ValidateBudget(merged.BudgetMin, merged.BudgetMax); err != nil {
		return err
	}

	merged.Requirements = NormalizeRequirements(merged)
	merged.UpdatedAt = now
	*r = merged
	return nil
}

// Transition moves the rfp along the status machine.
func (r *RFP) Transition(next Status, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// VisibleTo reports whether a caller may read the rfp.
func (r RFP) VisibleTo(userID string, isAdmin bool) bool {
	return !r.IsPrivate || isAdmin || (userID != "" && r.BuyerID == userID)
}

// AcceptsOffers is true while sellers may submit, edit or withdraw offers.
func (r RFP) AcceptsOffers() bool {
	return r.Status == StatusPublished
}

// BudgetMidpoint returns the middle of the budget range when both bounds are set.
func (r RFP) BudgetMidpoint() (float64, bool) {
	if r.BudgetMin == nil || r.BudgetMax == nil {
		return 0, false
	}
	return (*r.BudgetMin + *r.BudgetMax) / 2, true
}
