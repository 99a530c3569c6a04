// Package fraud implements the heuristics that gate vendor approval:
// name-mismatch detection between identity and bank records, calendar-aware
// age computation, and an aggregate 0-100 risk score. Everything here is a
// pure function over the vendor record passed in; duplicate-ID lookups are a
// repository concern and only their results (the flags) are read here.
package fraud

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"kasu/internal/domain"
)

// Risk weights. Adding a flag never lowers the score, and the total is
// capped at 100.
const (
	weightDuplicateNIN = 40
	weightDuplicateBVN = 40
	weightNameMismatch = 15
	weightUnderage     = 25

	maxRiskScore = 100
)

// DefaultNameMatchThreshold is the similarity below which two names are
// flagged as a mismatch.
const DefaultNameMatchThreshold = 0.7

// NameMatchResult is the outcome of comparing the identity-verified name
// against the bank-account name.
type NameMatchResult struct {
	Matches    bool
	Similarity float64
	Details    string
}

// CheckNameMatch compares two personal names with a case-insensitive
// token-based similarity (Dice coefficient over name tokens). Names in
// different orders ("John Doe" vs "DOE JOHN") compare as equal.
func CheckNameMatch(nameA, nameB string, threshold float64) NameMatchResult {
	tokensA := nameTokens(nameA)
	tokensB := nameTokens(nameB)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return NameMatchResult{
			Matches: false,
			Details: "one or both names are empty",
		}
	}

	shared := 0
	seen := make(map[string]int, len(tokensA))
	for _, t := range tokensA {
		seen[t]++
	}
	for _, t := range tokensB {
		if seen[t] > 0 {
			seen[t]--
			shared++
		}
	}

	similarity := float64(2*shared) / float64(len(tokensA)+len(tokensB))
	if similarity >= threshold {
		return NameMatchResult{Matches: true, Similarity: similarity}
	}

	return NameMatchResult{
		Matches:    false,
		Similarity: similarity,
		Details: fmt.Sprintf("identity name %q does not match bank name %q (similarity %.2f)",
			strings.TrimSpace(nameA), strings.TrimSpace(nameB), similarity),
	}
}

func nameTokens(name string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	sort.Strings(fields)
	return fields
}

// AgeAt returns the calendar-aware age in whole years at asOf, accounting for
// a birthday not yet reached that year.
func AgeAt(birthdate, asOf time.Time) int {
	age := asOf.Year() - birthdate.Year()
	anniversary := time.Date(asOf.Year(), birthdate.Month(), birthdate.Day(), 0, 0, 0, 0, asOf.Location())
	if asOf.Before(anniversary) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// IsUnderage reports whether the age is below the minimum selling age.
func IsUnderage(age, minimumAge int) bool {
	return age < minimumAge
}

// RiskScore computes the deterministic weighted sum of the vendor's risk
// flags, capped to [0, 100].
func RiskScore(v *domain.VendorIdentity) int {
	score := 0
	if v.HasDuplicateNIN {
		score += weightDuplicateNIN
	}
	if v.HasDuplicateBVN {
		score += weightDuplicateBVN
	}
	if v.HasNameMismatch {
		score += weightNameMismatch
	}
	if v.IsUnderage {
		score += weightUnderage
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}
