package pool

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

var (
	ErrNotFound          = errors.New("pool not found")
	ErrNotActive         = errors.New("pool is not active")
	ErrDeadlinePassed    = errors.New("pool deadline has passed")
	ErrInvalidTiers      = errors.New("tiers must have strictly increasing quantities and discounts between 0 and 100")
	ErrInvalidQuantities = errors.New("target_quantity must be at least min_quantity")
)

type Tier struct {
	Quantity           int     `json:"quantity" binding:"required,min=1"`
	DiscountPercentage float64 `json:"discount_percentage" binding:"required,gt=0,lt=100"`
}

type Pool struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ProductID       *string   `json:"product_id,omitempty"`
	MinQuantity     int       `json:"min_quantity"`
	TargetQuantity  int       `json:"target_quantity"`
	CurrentQuantity int       `json:"current_quantity"`
	BasePrice       float64   `json:"base_price"`
	Tiers           []Tier    `json:"tiers"`
	Deadline        time.Time `json:"deadline"`
	Status          Status    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Member struct {
	PoolID          string    `json:"pool_id"`
	UserID          string    `json:"user_id"`
	Quantity        int       `json:"quantity"`
	CommittedAmount float64   `json:"committed_amount"`
	JoinedAt        time.Time `json:"joined_at"`
}

// View is the read model: the pool plus its live pricing.
type View struct {
	Pool
	CurrentPrice float64 `json:"current_price"`
	NextTier     *Tier   `json:"next_tier"`
}

type CreateRequest struct {
	Name           string    `json:"name" binding:"required,min=3,max=200"`
	Description    string    `json:"description" binding:"omitempty,max=5000"`
	ProductID      *string   `json:"product_id" binding:"omitempty,uuid"`
	MinQuantity    int       `json:"min_quantity" binding:"required,min=1"`
	TargetQuantity int       `json:"target_quantity" binding:"required,min=1"`
	BasePrice      float64   `json:"base_price" binding:"required,gt=0"`
	Tiers          []Tier    `json:"tiers" binding:"omitempty,max=20,dive"`
	Deadline       time.Time `json:"deadline" binding:"required"`
}

type JoinRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func ValidateTiers(tiers []Tier) error {
	prev := 0
	for _, t := range tiers {
		if t.Quantity <= prev || t.DiscountPercentage <= 0 || t.DiscountPercentage >= 100 {
			return ErrInvalidTiers
		}
		prev = t.Quantity
	}
	return nil
}

func New(req CreateRequest, createdBy string, now time.Time) (Pool, error) {
	if req.TargetQuantity < req.MinQuantity {
		return Pool{}, ErrInvalidQuantities
	}
	if err := ValidateTiers(req.Tiers); err != nil {
		return Pool{}, err
	}
	if !req.Deadline.After(now) {
		return Pool{}, ErrDeadlinePassed
	}

	tiers := req.Tiers
	if tiers == nil {
		tiers = []Tier{}
	}

	return Pool{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		ProductID:      req.ProductID,
		MinQuantity:    req.MinQuantity,
		TargetQuantity: req.TargetQuantity,
		BasePrice:      req.BasePrice,
		Tiers:          tiers,
		Deadline:       req.Deadline.UTC(),
		Status:         StatusActive,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplicableDiscount is the discount of the highest tier reached by qty.
func ApplicableDiscount(tiers []Tier, qty int) float64 {
	discount := 0.0
	best := 0
	for _, t := range tiers {
		if t.Quantity <= qty && t.Quantity >= best {
			best = t.Quantity
			discount = t.DiscountPercentage
		}
	}
	return discount
}

// UnitPrice is base × (1 − discount/100) at qty, rounded to cents.
func UnitPrice(base float64, tiers []Tier, qty int) float64 {
	return roundCents(base * (1 - ApplicableDiscount(tiers, qty)/100))
}

// NextTier is the smallest tier not yet reached, or nil.
func NextTier(tiers []Tier, qty int) *Tier {
	var next *Tier
	for i := range tiers {
		t := tiers[i]
		if t.Quantity > qty && (next == nil || t.Quantity < next.Quantity) {
			next = &t
		}
	}
	return next
}

func (p Pool) View() View {
	return View{
		Pool:         p,
		CurrentPrice: UnitPrice(p.BasePrice, p.Tiers, p.CurrentQuantity),
		NextTier:     NextTier(p.Tiers, p.CurrentQuantity),
	}
}

// Join records a commitment of qty units by userID. The member pays the unit
// price reached once their quantity is counted. Reaching the target completes the pool.
func (p *Pool) Join(userID string, qty int, now time.Time) (Member, error) {
	if p.Status != StatusActive {
		return Member{}, ErrNotActive
	}
	if !now.Before(p.Deadline) {
		return Member{}, ErrDeadlinePassed
	}

	p.CurrentQuantity += qty
	price := UnitPrice(p.BasePrice, p.Tiers, p.CurrentQuantity)

	if p.CurrentQuantity >= p.TargetQuantity {
		p.Status = StatusCompleted
	}
	p.UpdatedAt = now

	return Member{
		PoolID:          p.ID,
		UserID:          userID,
		Quantity:        qty,
		CommittedAmount: roundCents(price * float64(qty)),
		JoinedAt:        now,
	}, nil
}

// SweepOutcome decides what an overdue active pool becomes. ok is false when
// the pool should be left alone.
func (p Pool) SweepOutcome(now time.Time) (Status, bool) {
	if p.Status != StatusActive || now.Before(p.Deadline) {
		return p.Status, false
	}
	if p.CurrentQuantity >= p.MinQuantity {
		return StatusCompleted, true
	}
	return StatusExpired, true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
