// Package fallback generates deterministic financial advice without calling
// the remote model. It is the answer of last resort when the completion path
// is unavailable.
package fallback

import (
	"fmt"
	"strconv"
	"strings"

	"financeguru/internal/textsignal"
	"financeguru/internal/validate"
)

// Risk profiles derived from the asserted age.
const (
	riskAggressive   = "aggressive"
	riskModerate     = "moderate"
	riskConservative = "conservative"
)

// Closed keyword lists per topic. Matching is case-insensitive substring
// membership.
var (
	retirementTerms = []string{"retire", "retirement", "pension", "old age"}
	educationTerms  = []string{"education", "college", "university", "school", "studies", "study"}
	shortTermTerms  = []string{"short term", "short-term", "quick", "emergency", "soon", "trip", "vacation", "holiday"}
	stockTerms      = []string{"stock", "equity", "shares"}
	mutualFundTerms = []string{"mutual fund", "etf", "index fund"}
	realEstateTerms = []string{"real estate", "property", "house", "apartment", "land"}
	cryptoTerms     = []string{"crypto", "bitcoin", "ethereum", "blockchain"}
)

var stockAdvice = map[string]string{
	riskAggressive:   "With your risk profile, allocating 60-70% to quality stocks could be appropriate.",
	riskModerate:     "Consider allocating 40-50% of your portfolio to quality stocks for growth.",
	riskConservative: "Even with a conservative approach, 20-30% allocation to stable, dividend-paying stocks can help beat inflation.",
}

var generalAllocation = map[string]string{
	riskAggressive:   "With an aggressive risk profile, consider an allocation of 70-80% in equity (stocks, equity mutual funds), 15-20% in debt instruments, and 5-10% in alternative investments.",
	riskModerate:     "With a moderate risk profile, a balanced allocation might include 50-60% in equity, 30-40% in debt, and 5-10% in alternatives or cash.",
	riskConservative: "With a conservative risk profile, consider 30-40% in equity, 50-60% in debt instruments, and 10-15% in cash or cash equivalents.",
}

// Build returns advice text for the input, or the validation message verbatim
// when the input is unrealistic. Identical input always yields identical
// output.
func Build(text string) string {
	if out := validate.Validate(text); !out.Valid {
		return out.Message
	}

	lowered := strings.ToLower(text)
	signals := textsignal.Extract(text)

	hasRetirement := containsAny(lowered, retirementTerms)
	hasEducation := containsAny(lowered, educationTerms)
	hasShortTerm := containsAny(lowered, shortTermTerms)
	hasStocks := containsAny(lowered, stockTerms)
	hasMutualFunds := containsAny(lowered, mutualFundTerms)
	hasRealEstate := containsAny(lowered, realEstateTerms)
	hasCrypto := containsAny(lowered, cryptoTerms)

	risk := riskProfile(signals.Age)

	parts := []string{"Thanks for reaching out to FinanceGuru!"}

	if signals.Age != nil {
		parts = append(parts, fmt.Sprintf("At %d years old, you're in a good position to start building your financial future.", *signals.Age))
	}
	if signals.Amount != nil {
		parts = append(parts, fmt.Sprintf("Investing %s %s is a great start.",
			strconv.FormatFloat(signals.Amount.Value, 'f', -1, 64), signals.Amount.Currency))
	}

	if hasEducation {
		parts = append(parts, "For education funding, consider a mix of fixed deposits and debt mutual funds for near-term goals, and equity funds for longer-term educational aspirations.")
	}
	if hasRetirement {
		parts = append(parts, "For retirement planning, start with tax-advantaged retirement accounts and gradually build a diversified portfolio across equity and debt instruments.")
	}
	if hasShortTerm {
		parts = append(parts, "For short-term goals like trips or emergencies, focus on liquid funds, high-yield savings accounts, or short-term fixed deposits to ensure your money remains accessible.")
	}

	if hasStocks {
		parts = append(parts, stockAdvice[risk])
	}
	if hasMutualFunds {
		parts = append(parts, "Mutual funds offer diversification and professional management. Index funds are particularly cost-effective for long-term growth.")
	}
	if hasRealEstate {
		parts = append(parts, "Real estate investments require significant capital but can provide both rental income and appreciation. REITs (Real Estate Investment Trusts) offer a more accessible alternative.")
	}
	if hasCrypto {
		parts = append(parts, "Cryptocurrency investments are highly volatile. If exploring this space, limit exposure to a small percentage of your portfolio that you can afford to lose (typically 5% or less).")
	}

	if !(hasStocks || hasMutualFunds || hasRealEstate || hasCrypto) {
		parts = append(parts, generalAllocation[risk])
	}

	parts = append(parts, "Remember that diversification across asset classes and regular investing are key to long-term financial success.")

	return strings.Join(parts, " ")
}

// riskProfile maps the asserted age to a coarse risk band; moderate when no
// age was asserted.
func riskProfile(age *int) string {
	if age == nil {
		return riskModerate
	}
	switch {
	case *age <= 30:
		return riskAggressive
	case *age >= 50:
		return riskConservative
	}
	return riskModerate
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
