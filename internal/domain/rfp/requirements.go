package rfp

import (
	"fmt"
	"strings"
	"unicode"
)

const notSpecified = "not_specified"

// Requirements is the structured form of a free-text rfp description.
type Requirements struct {
	Category              string   `json:"category"`
	Specifications        []string `json:"specifications"`
	Constraints           []string `json:"constraints"`
	BudgetRange           string   `json:"budget_range"`
	Timeline              string   `json:"timeline"`
	LocationPreferences   []string `json:"location_preferences"`
	TechnicalRequirements []string `json:"technical_requirements"`
	QualityStandards      []string `json:"quality_standards"`
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"software", []string{"software", "app", "application", "website", "web", "api", "backend", "frontend", "mobile", "saas", "dashboard", "database", "portal", "platform"}},
	{"marketing", []string{"marketing", "seo", "campaign", "social media", "advertising", "brand", "content"}},
	{"hardware", []string{"hardware", "server", "laptop", "device", "equipment", "printer", "sensor"}},
	{"consulting", []string{"consulting", "consultant", "strategy", "advisory", "audit", "process"}},
}

var constraintMarkers = []string{"must", "must not", "cannot", "no more than", "at most", "only", "within", "before", "deadline", "limit"}

var technicalMarkers = []string{
	"api", "database", "react", "next.js", "node", "python", "go ", "golang", "java", "kubernetes",
	"docker", "aws", "gcp", "azure", "sql", "integration", "cloud", "security", "mobile",
}

var qualityMarkers = []string{"iso", "certified", "certification", "warranty", "quality", "sla", "compliance", "gdpr", "hipaa", "soc 2"}

// NormalizeRequirements derives the structured requirements of r from its
// description and attributes. The result is deterministic for equal input.
func NormalizeRequirements(r RFP) Requirements {
	items := splitStatements(r.Description)
	lowerDesc := strings.ToLower(r.Description)

	req := Requirements{
		Category:              r.Category,
		Specifications:        []string{},
		Constraints:           []string{},
		BudgetRange:           budgetRange(r.BudgetMin, r.BudgetMax),
		Timeline:              notSpecified,
		LocationPreferences:   []string{},
		TechnicalRequirements: []string{},
		QualityStandards:      []string{},
	}

	if req.Category == "" {
		req.Category = GuessCategory(lowerDesc)
	}

	if !r.Deadline.IsZero() {
		req.Timeline = "by " + r.Deadline.UTC().Format("2006-01-02")
	}

	if r.Location != nil && strings.TrimSpace(*r.Location) != "" {
		req.LocationPreferences = append(req.LocationPreferences, strings.TrimSpace(*r.Location))
	}

	for _, item := range items {
		lower := strings.ToLower(item)

		switch {
		case containsAny(lower, constraintMarkers):
			req.Constraints = append(req.Constraints, item)
		default:
			req.Specifications = append(req.Specifications, item)
		}

		if containsAny(lower+" ", technicalMarkers) {
			req.TechnicalRequirements = append(req.TechnicalRequirements, item)
		}
		if containsAny(lower, qualityMarkers) {
			req.QualityStandards = append(req.QualityStandards, item)
		}
	}

	if len(req.Specifications) == 0 && len(req.Constraints) == 0 && strings.TrimSpace(r.Description) != "" {
		req.Specifications = append(req.Specifications, strings.TrimSpace(r.Description))
	}

	return req
}

// GuessCategory picks the first category whose keywords appear in text, else "general".
func GuessCategory(text string) string {
	text = strings.ToLower(text)
	for _, c := range categoryKeywords {
		if containsAny(text, c.words) {
			return c.category
		}
	}
	return "general"
}

// Summarize produces the short ai_summary stored by the summarize job.
func Summarize(r RFP) string {
	category := r.Category
	if category == "" {
		category = "general"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RFP for %s services with budget range %s", category, budgetRange(r.BudgetMin, r.BudgetMax))

	if !r.Deadline.IsZero() {
		fmt.Fprintf(&b, ", due %s", r.Deadline.UTC().Format("2006-01-02"))
	}
	b.WriteString(".")

	req := r.Requirements
	if len(req.Specifications) > 0 {
		fmt.Fprintf(&b, " Key requirement: %s", ensurePeriod(req.Specifications[0]))
	}
	if len(req.Constraints) > 0 {
		fmt.Fprintf(&b, " Constraint: %s", ensurePeriod(req.Constraints[0]))
	}

	return b.String()
}

func budgetRange(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("$%.2f - $%.2f", *min, *max)
	case min != nil:
		return fmt.Sprintf("from $%.2f", *min)
	case max != nil:
		return fmt.Sprintf("up to $%.2f", *max)
	}
	return notSpecified
}

// splitStatements breaks free text into trimmed sentences and bullet items.
func splitStatements(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '.' || r == ';' || r == '!' || r == '?'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsSpace(r) || r == '-' || r == '*' || r == '•'
		})
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func ensurePeriod(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}
