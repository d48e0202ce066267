package concierge

// RoleSuggestions are the conversation starters offered before any chat.
func RoleSuggestions(role string) []string {
	switch role {
	case "buyer":
		return []string{"Help me write an RFP", "Browse seller profiles", "Market research", "Negotiation advice"}
	case "seller":
		return []string{"Browse active RFPs", "Update my profile", "Market insights", "Pricing strategy"}
	default:
		return []string{"Help me write an RFP", "Analyze an offer", "Market research", "Platform guide"}
	}
}

func contextSuggestions(role string) []string {
	switch role {
	case "buyer":
		return []string{"Browse seller profiles", "Create a new RFP", "View my active RFPs"}
	case "seller":
		return []string{"Browse active RFPs", "Update my profile", "View my offers"}
	default:
		return nil
	}
}
