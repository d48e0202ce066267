package concierge

import (
	"strings"
	"time"
)

type ReplyType string

const (
	ReplyText       ReplyType = "text"
	ReplySuggestion ReplyType = "suggestion"
	ReplyAnalysis   ReplyType = "analysis"
)

const maxSuggestions = 4

// Reply is what the concierge answers to one chat message.
type Reply struct {
	Content     string    `json:"content"`
	Type        ReplyType `json:"type"`
	Suggestions []string  `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
}

type family struct {
	keywords    []string
	content     string
	kind        ReplyType
	suggestions []string
}

// families are checked in order; the first keyword hit wins.
var families = []family{
	{
		keywords: []string{"rfp", "request", "write"},
		content: "I'd be happy to help you create an RFP! Here are some key elements to include:\n\n" +
			"**Essential Components:**\n• Clear project objectives\n• Detailed requirements\n• Budget range\n• Timeline expectations\n• Evaluation criteria\n\n" +
			"**Pro Tips:**\n• Be specific about deliverables\n• Include technical specifications\n• Mention any constraints\n• Set realistic deadlines\n\n" +
			"Would you like me to help you draft a specific section?",
		kind: ReplySuggestion,
		suggestions: []string{
			"Help me write the description",
			"What should I include in requirements?",
			"How do I set a good budget?",
			"Show me an RFP template",
		},
	},
	{
		keywords: []string{"offer", "analyze", "price"},
		content: "I can help you analyze offers! Here's what I look for:\n\n" +
			"**Price Analysis:**\n• Market competitiveness\n• Value for money\n• Hidden costs\n\n" +
			"**Quality Assessment:**\n• Seller reputation\n• Delivery timeline\n• Technical expertise\n\n" +
			"**Risk Evaluation:**\n• Payment terms\n• Warranty coverage\n• Dispute resolution\n\n" +
			"Share the offer details and I'll provide a detailed analysis!",
		kind: ReplyAnalysis,
		suggestions: []string{
			"Analyze this specific offer",
			"Compare multiple offers",
			"Negotiation tips",
			"Red flags to watch for",
		},
	},
	{
		keywords: []string{"market", "research", "trends"},
		content: "Here are the current market insights:\n\n" +
			"**Trending Categories:**\n• Software Development (+15% YoY)\n• Digital Marketing (+12% YoY)\n• AI/ML Services (+25% YoY)\n\n" +
			"**Price Trends:**\n• Average RFP budget: $12,500\n• Most competitive: Web Development\n• Highest value: AI/ML Projects\n\n" +
			"**Geographic Insights:**\n• Remote work adoption: 78%\n• Top regions: US, EU, Asia-Pacific\n\n" +
			"Would you like specific data for your industry?",
		kind: ReplyAnalysis,
		suggestions: []string{
			"Industry-specific data",
			"Competitor analysis",
			"Pricing benchmarks",
			"Regional insights",
		},
	},
	{
		keywords: []string{"negotiate", "negotiation", "advice"},
		content: "Great! Here are my negotiation strategies:\n\n" +
			"**For Buyers:**\n• Start with market research\n• Request multiple quotes\n• Focus on value, not just price\n• Negotiate terms, not just cost\n\n" +
			"**For Sellers:**\n• Highlight unique value propositions\n• Offer flexible payment terms\n• Provide detailed proposals\n• Showcase past successes\n\n" +
			"**Key Principles:**\n• Win-win approach\n• Clear communication\n• Document everything\n• Set realistic expectations\n\n" +
			"What's your negotiation scenario?",
		kind: ReplySuggestion,
		suggestions: []string{
			"Buyer negotiation tips",
			"Seller negotiation tips",
			"Contract terms advice",
			"Payment negotiation",
		},
	},
}

var defaultSuggestions = []string{
	"Help me write an RFP",
	"Analyze an offer",
	"Market research",
	"Negotiation advice",
}

// Greeting opens a fresh conversation.
func Greeting(now time.Time) Reply {
	return Reply{
		Content: "Hello! I'm your AI Concierge. I can help you with:\n\n" +
			"• Creating better RFPs\n• Analyzing offers\n• Market insights\n• Negotiation tips\n\n" +
			"What would you like to work on today?",
		Type: ReplyText,
		Suggestions: []string{
			"Help me write an RFP",
			"Analyze this offer",
			"Market research",
			"Negotiation advice",
		},
		Timestamp: now,
	}
}

// Respond picks the canned reply for input. Matching is case-insensitive
// substring search. The fallback appends the role's extras after the four
// defaults and caps the list at maxSuggestions, so the defaults always win.
func Respond(input, role string, now time.Time) Reply {
	lower := strings.ToLower(input)

	for _, f := range families {
		if containsAny(lower, f.keywords) {
			return Reply{
				Content:     f.content,
				Type:        f.kind,
				Suggestions: append([]string(nil), f.suggestions...),
				Timestamp:   now,
			}
		}
	}

	suggestions := append([]string(nil), defaultSuggestions...)
	suggestions = append(suggestions, contextSuggestions(role)...)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return Reply{
		Content: "I understand you're asking about \"" + input + "\". I can help you with:\n\n" +
			"• **RFP Creation**: Writing clear requirements and specifications\n" +
			"• **Offer Analysis**: Evaluating proposals and pricing\n" +
			"• **Market Research**: Understanding trends and benchmarks\n" +
			"• **Negotiation**: Strategies for both buyers and sellers\n\n" +
			"What specific aspect would you like to explore?",
		Type:        ReplySuggestion,
		Suggestions: suggestions,
		Timestamp:   now,
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
