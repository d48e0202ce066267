package offer

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusWithdrawn Status = "withdrawn"
)

var (
	ErrNotFound         = errors.New("offer not found")
	ErrAlreadySubmitted = errors.New("offer already submitted for this rfp")
	ErrOwnRFP           = errors.New("buyers cannot submit offers to their own rfps")
	ErrNotPending       = errors.New("offer is no longer pending")
	ErrForbidden        = errors.New("caller may not act on this offer")
)

type Offer struct {
	ID             string    `json:"id"`
	RFPID          string    `json:"rfp_id"`
	SellerID       string    `json:"seller_id"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Price          float64   `json:"price"`
	Description    string    `json:"description"`
	DeliveryTime   string    `json:"delivery_time"`
	Terms          *string   `json:"terms,omitempty"`
	Status         Status    `json:"status"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Price        float64 `json:"price" binding:"required,gt=0"`
	Description  string  `json:"description" binding:"required,min=10,max=10000"`
	DeliveryTime string  `json:"delivery_time" binding:"required,max=100"`
	Terms        *string `json:"terms" binding:"omitempty,max=5000"`
	IsPrivate    bool    `json:"is_private"`
}

type UpdateRequest struct {
	Price        *float64 `json:"price" binding:"omitempty,gt=0"`
	Description  *string  `json:"description" binding:"omitempty,min=10,max=10000"`
	DeliveryTime *string  `json:"delivery_time" binding:"omitempty,min=1,max=100"`
	Terms        *string  `json:"terms" binding:"omitempty,max=5000"`
	IsPrivate    *bool    `json:"is_private"`
}

func New(req CreateRequest, rfpID, sellerID string, orgID *string, now time.Time) Offer {
	return Offer{
		ID:             uuid.NewString(),
		RFPID:          rfpID,
		SellerID:       sellerID,
		OrganizationID: orgID,
		Price:          req.Price,
		Description:    strings.TrimSpace(req.Description),
		DeliveryTime:   strings.TrimSpace(req.DeliveryTime),
		Terms:          req.Terms,
		Status:         StatusPending,
		IsPrivate:      req.IsPrivate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (o *Offer) Apply(req UpdateRequest, now time.Time) error {
	if o.Status != StatusPending {
		return ErrNotPending
	}

	if req.Price != nil {
		o.Price = *req.Price
	}
	if req.Description != nil {
		o.Description = strings.TrimSpace(*req.Description)
	}
	if req.DeliveryTime != nil {
		o.DeliveryTime = strings.TrimSpace(*req.DeliveryTime)
	}
	if req.Terms != nil {
		o.Terms = req.Terms
	}
	if req.IsPrivate != nil {
		o.IsPrivate = *req.IsPrivate
	}
	o.UpdatedAt = now
	return nil
}

// Counteroffer is the negotiation hint returned by the suggestions endpoint.
type Counteroffer struct {
	SuggestedPrice  float64  `json:"suggested_price"`
	MarketAverage   float64  `json:"market_average"`
	Reasoning       string   `json:"reasoning"`
	NegotiationTips []string `json:"negotiation_tips"`
}

var negotiationTips = []string{
	"Focus on value proposition",
	"Consider payment terms",
	"Discuss delivery timeline",
}

// SuggestCounteroffer meets the offer halfway to the market average. The market
// average is the budget midpoint when the rfp has one, otherwise the offer price.
func SuggestCounteroffer(price float64, budgetMid float64, hasBudget bool) Counteroffer {
	market := price
	reasoning := "No budget range on the RFP; the offer price is used as the market reference"
	if hasBudget {
		market = budgetMid
		reasoning = "Midpoint between the offer price and the RFP budget midpoint"
	}

	return Counteroffer{
		SuggestedPrice:  roundCents((price + market) / 2),
		MarketAverage:   roundCents(market),
		Reasoning:       reasoning,
		NegotiationTips: append([]string(nil), negotiationTips...),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
