// Package bleu implements a modified sentence-level BLEU score used as a
// back-translation quality heuristic. It follows the usual n-gram precision
// formulation (n = 1..4) with clipped counts and a brevity penalty, but
// deliberately skips smoothing: any zero precision zeroes the whole score.
package bleu

import (
	"math"
	"strings"
	"unicode"
)

const maxOrder = 4

// Tokenize lowercases the input, strips punctuation and splits on whitespace.
// The same token stream feeds both BLEU precision counting and the fuzzy
// cache similarity, so the two agree on what a "word" is.
func Tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}

// Score computes a BLEU score in [0, 1] for candidate against reference.
// It is a pure function of its two inputs.
func Score(reference, candidate string) float64 {
	refTokens := Tokenize(reference)
	candTokens := Tokenize(candidate)
	if len(candTokens) == 0 {
		return 0.0
	}

	bp := 1.0
	if len(candTokens) < len(refTokens) {
		bp = math.Exp(1.0 - float64(len(refTokens))/float64(len(candTokens)))
	}

	logSum := 0.0
	for n := 1; n <= maxOrder; n++ {
		p := precision(refTokens, candTokens, n)
		if p == 0 {
			return 0.0
		}
		logSum += math.Log(p)
	}

	return bp * math.Exp(logSum/maxOrder)
}

// precision computes the clipped n-gram precision: each reference n-gram
// instance satisfies at most one candidate match.
func precision(ref, cand []string, n int) float64 {
	if len(cand) < n {
		return 0.0
	}

	remaining := make(map[string]int)
	for _, g := range ngrams(ref, n) {
		remaining[g]++
	}

	candGrams := ngrams(cand, n)
	matches := 0
	for _, g := range candGrams {
		if remaining[g] > 0 {
			remaining[g]--
			matches++
		}
	}

	return float64(matches) / float64(len(candGrams))
}

func ngrams(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Rating buckets a BLEU score into a display label.
func Rating(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent"
	case score >= 0.7:
		return "Very Good"
	case score >= 0.5:
		return "Good"
	case score >= 0.3:
		return "Fair"
	default:
		return "Poor"
	}
}
