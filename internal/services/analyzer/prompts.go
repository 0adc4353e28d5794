package analyzer

import "strings"

// promptProfile selects the analyst instruction set for a report type.
// The profile changes the system prompt emphasis; the output contract is
// identical for all profiles so parsing stays uniform.
type promptProfile string

const (
	profileDefault   promptProfile = "default"
	profileFinancial promptProfile = "financial"
	profileTechnical promptProfile = "technical"
)

// profileFor maps a report type to a prompt profile by substring match.
// Earnings and annual filings get the financial profile; product and
// technology reports get the technical one.
func profileFor(reportType string) promptProfile {
	lower := strings.ToLower(reportType)

	switch {
	case strings.Contains(lower, "earnings"),
		strings.Contains(lower, "annual"),
		strings.Contains(lower, "quarterly"),
		strings.Contains(lower, "10-k"),
		strings.Contains(lower, "10-q"):
		return profileFinancial
	case strings.Contains(lower, "technical"),
		strings.Contains(lower, "technology"),
		strings.Contains(lower, "product"),
		strings.Contains(lower, "whitepaper"):
		return profileTechnical
	default:
		return profileDefault
	}
}

var systemPrompts = map[promptProfile]string{
	profileDefault: "You are a senior business analyst. Analyze corporate reports " +
		"and produce concise, factual assessments grounded only in the provided text.",
	profileFinancial: "You are a financial analyst expert. Analyze financial reports " +
		"with attention to revenue, margins, guidance and capital allocation. " +
		"Ground every claim in the provided text.",
	profileTechnical: "You are a technology analyst. Analyze product and technology " +
		"reports with attention to roadmap, differentiation and execution risk. " +
		"Ground every claim in the provided text.",
}

// outputContract is appended to every user prompt. The analyzer requires a
// single JSON object so the tolerant parser has a fixed shape to find.
const outputContract = `Respond with a single JSON object using exactly these keys:
{
  "executive_summary": "2-3 sentence summary",
  "key_highlights": ["3-5 bullet points"],
  "strategic_initiatives": ["initiatives mentioned in the report"],
  "market_outlook": "outlook statement",
  "risk_factors": ["2-4 risks"],
  "competitive_position": "assessment",
  "investment_thesis": "1-2 sentence thesis",
  "sentiment_score": 0.0,
  "sentiment_label": "Positive|Negative|Neutral",
  "confidence": 0.0
}
sentiment_score and confidence are between 0.0 and 1.0. Do not include any text outside the JSON object.`

// buildSystemPrompt returns the system instruction for a report type
func buildSystemPrompt(reportType string) string {
	return systemPrompts[profileFor(reportType)]
}

// buildUserPrompt assembles the analysis request for one document
func buildUserPrompt(text, companyName, reportType string) string {
	var b strings.Builder

	b.WriteString("Analyze this ")
	if reportType != "" {
		b.WriteString(reportType)
		b.WriteString(" report")
	} else {
		b.WriteString("report")
	}
	if companyName != "" {
		b.WriteString(" from ")
		b.WriteString(companyName)
	}
	b.WriteString(".\n\n")
	b.WriteString(outputContract)
	b.WriteString("\n\nReport Text:\n")
	b.WriteString(text)

	return b.String()
}
