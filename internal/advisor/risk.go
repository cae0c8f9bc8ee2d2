package advisor

import (
	"strings"

	"finadvisor/internal/models"
)

// Keyword lists for the answer-text risk scan. Matching is by substring
// on the lower-cased text, so plurals and inflections match their stem.
var (
	highRiskTerms = []string{
		"leveraged",
		"margin",
		"options",
		"futures",
		"shorting",
		"crypto",
		"volatile",
		"speculative",
		"meme",
	}

	moderateRiskTerms = []string{
		"risk",
		"caution",
		"uncertain",
		"fluctuate",
		"downturn",
	}
)

// ClassifyRisk derives a coarse risk label from model output. Any
// high-risk term wins over any cautionary term; text mentioning neither
// is labeled low.
func ClassifyRisk(text string) models.RiskLevel {
	lowered := strings.ToLower(text)

	for _, term := range highRiskTerms {
		if strings.Contains(lowered, term) {
			return models.RiskHigh
		}
	}

	for _, term := range moderateRiskTerms {
		if strings.Contains(lowered, term) {
			return models.RiskModerate
		}
	}

	return models.RiskLow
}
