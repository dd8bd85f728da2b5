// Package textsignal extracts asserted ages and monetary amounts from free
// text with anchor-phrase heuristics. Everything here is a pure function;
// inputs are scanned fresh on every call.
package textsignal

import (
	"strconv"
	"strings"
)

// Anchor phrases that precede an asserted age, checked in order.
var ageAnchors = []string{"i am", "i'm", "age", "years old"}

// Indicator tokens that mark nearby monetary amounts, checked in order.
var amountIndicators = []string{"invest", "investing", "investment", "rs", "rupees", "inr", "$", "dollars", "usd"}

const (
	CurrencyRupees  = "rupees"
	CurrencyDollars = "dollars"
)

// Amount is a monetary value with a coarse currency hint.
type Amount struct {
	Value    float64
	Currency string
}

// Signals are the extracted claims of a single text. Nil fields mean the
// text asserted nothing, not zero.
type Signals struct {
	Age    *int
	Amount *Amount
}

// Extract runs both scans over the text.
func Extract(text string) Signals {
	var s Signals
	if age, ok := ExtractAge(text); ok {
		s.Age = &age
	}
	if amount, ok := ExtractAmount(text); ok {
		s.Amount = &amount
	}
	return s
}

// ExtractAge returns the first asserted age in the text. For each anchor
// phrase present, the text is split at its first occurrence and the first two
// tokens after it are inspected; the first purely numeric token wins.
func ExtractAge(text string) (int, bool) {
	lowered := strings.ToLower(text)
	for _, anchor := range ageAnchors {
		if !strings.Contains(lowered, anchor) {
			continue
		}
		rest := lowered[strings.Index(lowered, anchor)+len(anchor):]
		words := strings.Fields(strings.TrimSpace(rest))
		for i, word := range words {
			if i >= 2 {
				break
			}
			word = strings.Trim(word, ",.!?;:")
			if !isDigits(word) {
				continue
			}
			age, err := strconv.Atoi(word)
			if err != nil {
				continue
			}
			return age, true
		}
	}
	return 0, false
}

// ExtractAmount returns the first monetary amount found near an investment
// indicator. The text is split around each present indicator and every
// resulting segment is scanned in order; the first token that parses as a
// non-negative float wins. A magnitude word immediately after the winning
// token multiplies it.
func ExtractAmount(text string) (Amount, bool) {
	lowered := strings.ToLower(text)
	for _, indicator := range amountIndicators {
		if !strings.Contains(lowered, indicator) {
			continue
		}
		for _, segment := range strings.Split(lowered, indicator) {
			words := strings.Fields(strings.TrimSpace(segment))
			for i, word := range words {
				clean := stripToNumber(word)
				if clean == "" {
					continue
				}
				value, err := strconv.ParseFloat(clean, 64)
				if err != nil || value < 0 {
					continue
				}
				if i+1 < len(words) {
					value *= magnitudeFor(words[i+1])
				}
				return Amount{Value: value, Currency: currencyHint(lowered)}, true
			}
		}
	}
	return Amount{}, false
}

// magnitudeFor maps a magnitude word to its multiplier, 1 if the token is
// not a magnitude word.
func magnitudeFor(word string) float64 {
	switch {
	case strings.Contains(word, "thousand") || word == "k":
		return 1_000
	case strings.Contains(word, "lakh"):
		return 100_000
	case strings.Contains(word, "million") || word == "m":
		return 1_000_000
	}
	return 1
}

// currencyHint reports rupees when any rupee token occurs anywhere in the
// lowered text, dollars otherwise. Bare substring match, so "rs" inside a
// longer word counts.
func currencyHint(lowered string) string {
	if strings.Contains(lowered, "rupee") || strings.Contains(lowered, "rs") || strings.Contains(lowered, "inr") {
		return CurrencyRupees
	}
	return CurrencyDollars
}

// stripToNumber keeps digits and at most one decimal point, dropping
// everything else. Returns "" when nothing numeric remains or a second
// decimal point appears.
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

func isDigits(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
