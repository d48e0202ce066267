package dashboard

import "math"

// Counts are the per-buyer aggregates the dashboard is built from.
type Counts struct {
	TotalRFPs    int
	Awarded      int
	Closed       int
	Cancelled    int
	ActiveOffers int
	TotalSpent   float64
}

type Stats struct {
	TotalRFPs    int     `json:"total_rfps"`
	ActiveOffers int     `json:"active_offers"`
	TotalSpent   float64 `json:"total_spent"`
	SuccessRate  float64 `json:"success_rate"`
}

// FromCounts computes the success rate as awarded over finished rfps.
func FromCounts(c Counts) Stats {
	s := Stats{
		TotalRFPs:    c.TotalRFPs,
		ActiveOffers: c.ActiveOffers,
		TotalSpent:   math.Round(c.TotalSpent*100) / 100,
	}

	finished := c.Awarded + c.Closed + c.Cancelled
	if finished > 0 {
		s.SuccessRate = math.Round(float64(c.Awarded)/float64(finished)*10000) / 100
	}
	return s
}
