// Package validate decides whether free-text financial queries are
// semantically realistic before any remote model is consulted.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"financeguru/internal/textsignal"
)

const (
	// Inclusive bounds for an age we will plan against.
	minRealisticAge = 5
	maxRealisticAge = 120

	tooLargeAmountMessage = "I noticed you mentioned investing %s, which is an extremely large amount. Could you please confirm a more realistic investment amount for personalized advice?"
)

var amountIndicators = []string{"invest", "investing", "investment", "rs", "rupees", "inr", "$", "dollars", "usd"}

// Outcome is the result of one validation pass. Message is set only when
// Valid is false.
type Outcome struct {
	Valid   bool
	Message string
}

// Validate checks the text against the unrealistic-age rule and then the
// unrealistic-amount rule; the first rule that triggers decides the outcome.
// It is side-effect free and never touches the network.
func Validate(text string) Outcome {
	if age, ok := textsignal.ExtractAge(text); ok {
		if age > maxRealisticAge {
			return Outcome{Message: fmt.Sprintf("I noticed you mentioned being %d years old, which seems unrealistic for financial planning. Could you please confirm your actual age so I can provide more accurate advice?", age)}
		}
		if age < minRealisticAge {
			return Outcome{Message: fmt.Sprintf("I noticed you mentioned being %d years old, which is quite young for independent financial planning. Are you asking on behalf of someone else?", age)}
		}
	}
	if msg, bad := unrealisticAmount(text); bad {
		return Outcome{Message: msg}
	}
	return Outcome{Valid: true}
}

// unrealisticAmount scans every numeric token near an investment indicator
// and rejects on the first trillion-scale claim, or billion-scale claim
// above 1. Unlike amount extraction this does not stop at the first parsed
// candidate: any pairing in the text can trigger.
func unrealisticAmount(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, indicator := range amountIndicators {
		if !strings.Contains(lowered, indicator) {
			continue
		}
		for _, segment := range strings.Split(lowered, indicator) {
			words := strings.Fields(strings.TrimSpace(segment))
			for i, word := range words {
				clean := stripToNumber(word)
				if clean == "" || i+1 >= len(words) {
					continue
				}
				value, err := strconv.ParseFloat(clean, 64)
				if err != nil {
					continue
				}
				next := words[i+1]
				if strings.Contains(next, "trillion") {
					return fmt.Sprintf(tooLargeAmountMessage, "trillions"), true
				}
				if strings.Contains(next, "billion") && value > 1 {
					return fmt.Sprintf(tooLargeAmountMessage, "billions"), true
				}
			}
		}
	}
	return "", false
}

// stripToNumber keeps digits and at most one decimal point; "" when nothing
// numeric remains.
func stripToNumber(word string) string {
	var b strings.Builder
	dot := false
	for _, r := range word {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if dot {
				return ""
			}
			dot = true
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "." {
		return ""
	}
	return out
}
