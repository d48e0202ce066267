package concierge

import "math"

// AnalyzeOfferRequest is the loose offer description a user pastes in.
type AnalyzeOfferRequest struct {
	Price        float64  `json:"price" binding:"omitempty,gte=0"`
	SellerRating float64  `json:"seller_rating" binding:"omitempty,gte=0,lte=5"`
	BudgetMin    *float64 `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax    *float64 `json:"budget_max" binding:"omitempty,gte=0"`
	DeliveryTime string   `json:"delivery_time" binding:"omitempty,max=100"`
}

type PriceAnalysis struct {
	MarketPosition string `json:"market_position"`
	ValueScore     int    `json:"value_score"`
	PriceBreakdown string `json:"price_breakdown"`
}

type SellerAnalysis struct {
	ReputationScore float64 `json:"reputation_score"`
	ResponseTime    string  `json:"response_time"`
	CompletionRate  string  `json:"completion_rate"`
}

type RiskAssessment struct {
	OverallRisk     string   `json:"overall_risk"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

type OfferAnalysis struct {
	PriceAnalysis   PriceAnalysis  `json:"price_analysis"`
	SellerAnalysis  SellerAnalysis `json:"seller_analysis"`
	RiskAssessment  RiskAssessment `json:"risk_assessment"`
	Recommendations []string       `json:"recommendations"`
}

// AnalyzeOffer scores an offer against the buyer's budget when one is given.
// Without a budget the offer is assumed competitive.
func AnalyzeOffer(req AnalyzeOfferRequest) OfferAnalysis {
	position := "competitive"
	breakdown := "reasonable"
	score := 75

	switch {
	case req.BudgetMax != nil && req.Price > *req.BudgetMax:
		position = "high"
		breakdown = "above budget"
		over := (req.Price - *req.BudgetMax) / math.Max(*req.BudgetMax, 1)
		score = clampScore(75 - int(math.Round(over*100)))
	case req.BudgetMin != nil && req.Price > 0 && req.Price < *req.BudgetMin:
		position = "low"
		breakdown = "below budget"
		score = 85
	}

	risk := RiskAssessment{OverallRisk: "low", Concerns: []string{}, Recommendations: []string{}}

	if position == "high" {
		risk.Concerns = append(risk.Concerns, "Price exceeds the stated budget")
		risk.Recommendations = append(risk.Recommendations, "Ask the seller to itemize costs")
	}
	if position == "low" {
		risk.Concerns = append(risk.Concerns, "Price is well under budget; confirm scope is complete")
	}
	if req.SellerRating > 0 && req.SellerRating < 3 {
		risk.Concerns = append(risk.Concerns, "Seller rating is below 3")
		risk.Recommendations = append(risk.Recommendations, "Request references before accepting")
	}

	switch n := len(risk.Concerns); {
	case n >= 2:
		risk.OverallRisk = "high"
	case n == 1:
		risk.OverallRisk = "medium"
	}

	return OfferAnalysis{
		PriceAnalysis: PriceAnalysis{
			MarketPosition: position,
			ValueScore:     score,
			PriceBreakdown: breakdown,
		},
		SellerAnalysis: SellerAnalysis{
			ReputationScore: req.SellerRating,
			ResponseTime:    "24 hours",
			CompletionRate:  "95%",
		},
		RiskAssessment: risk,
		Recommendations: []string{
			"Consider requesting a detailed project timeline",
			"Ask for references from similar projects",
			"Negotiate payment terms (e.g., milestone payments)",
		},
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
