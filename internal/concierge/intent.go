package concierge

import "strings"

type Intent string

const (
	IntentRFPCreation    Intent = "rfp_creation"
	IntentOfferAnalysis  Intent = "offer_analysis"
	IntentMarketResearch Intent = "market_research"
	IntentNegotiation    Intent = "negotiation_advice"
	IntentGuidance       Intent = "general_guidance"
	IntentInquiry        Intent = "general_inquiry"
)

var intentRules = []struct {
	intent Intent
	words  []string
}{
	{IntentRFPCreation, []string{"rfp", "request", "proposal", "write", "create"}},
	{IntentOfferAnalysis, []string{"offer", "analyze", "compare", "price", "quote"}},
	{IntentMarketResearch, []string{"market", "research", "trend", "benchmark"}},
	{IntentNegotiation, []string{"negotiate", "negotiation", "deal", "counteroffer"}},
	{IntentGuidance, []string{"help", "how", "what", "guide"}},
}

// ClassifyIntent labels a message for the stored transcript.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)

	for _, rule := range intentRules {
		if containsAny(lower, rule.words) {
			return rule.intent
		}
	}
	return IntentInquiry
}
