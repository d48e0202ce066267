package reputation

import (
	"math"
	"time"
)

type Metric struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	OverallScore       float64   `json:"overall_score"`
	DeliveryScore      float64   `json:"delivery_score"`
	CommunicationScore float64   `json:"communication_score"`
	QualityScore       float64   `json:"quality_score"`
	TotalOrders        int       `json:"total_orders"`
	OnTimeDeliveryRate float64   `json:"on_time_delivery_rate"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Stats are the raw seller counters the scores are computed from.
type Stats struct {
	TotalOrders     int
	Delivered       int
	Cancelled       int
	OnTime          int
	TotalOffers     int
	WithdrawnOffers int
}

// Compute turns seller counters into scores on a 0..100 scale. A seller
// without orders scores zero across the board.
func Compute(userID string, s Stats, now time.Time) Metric {
	m := Metric{
		ID:          userID,
		UserID:      userID,
		TotalOrders: s.TotalOrders,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.TotalOrders == 0 {
		return m
	}

	total := float64(s.TotalOrders)

	m.DeliveryScore = round2(float64(s.Delivered) / total * 100)
	m.QualityScore = round2(100 - float64(s.Cancelled)/total*100)

	if s.Delivered > 0 {
		m.OnTimeDeliveryRate = round2(float64(s.OnTime) / float64(s.Delivered) * 100)
	}
	if s.TotalOffers > 0 {
		m.CommunicationScore = round2(float64(s.TotalOffers-s.WithdrawnOffers) / float64(s.TotalOffers) * 100)
	}

	m.OverallScore = round2((m.DeliveryScore + m.QualityScore + m.CommunicationScore) / 3)
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
