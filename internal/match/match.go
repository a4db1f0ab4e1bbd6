// Package match implements the fuzzy supplier-name matcher used to steer
// users away from creating near-duplicate suppliers. Like the ledger
// package it is pure: candidates in, ranked results out.
package match

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"procurement-service/internal/model"
)

const (
	// MinQueryLength is the shortest query that triggers a search; shorter
	// input would drown the caller in single-letter matches.
	MinQueryLength = 2

	// MaxResults caps the ranked result list
	MaxResults = 8

	substringScore    = 100
	subsequencePoints = 2
	wordPrefixBonus   = 10
)

// Result is a ranked candidate supplier name
type Result struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// BuildPool derives the candidate pool from transactional data: the
// deduplicated union of supplier names on invoices and purchase orders.
// Dedup is case-insensitive, keeping the first original casing seen, and
// the pool is sorted alphabetically (case-insensitive) before scoring.
func BuildPool(invoices []model.Invoice, orders []model.PurchaseOrder) []string {
	seen := make(map[string]struct{})
	pool := make([]string, 0, len(invoices)+len(orders))

	add := func(name string) {
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pool = append(pool, name)
	}

	for _, inv := range invoices {
		add(inv.SupplierName)
	}
	for _, po := range orders {
		add(po.SupplierName)
	}

	sort.Slice(pool, func(i, j int) bool {
		return strings.ToLower(pool[i]) < strings.ToLower(pool[j])
	})
	return pool
}

// Score rates how well candidate matches query. A case-insensitive
// substring containment wins outright with the top score. Otherwise the
// candidate is walked left to right against the query in lockstep,
// awarding points for every query character found in order, plus a bonus
// when a whole word of the candidate starts with the query. A subsequence
// only counts as a match if the entire query was consumed and the score
// clears a density threshold, so matches that are technically a
// subsequence but too sparse to mean anything are rejected.
func Score(query, candidate string) (score int, isMatch bool) {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)
	if q == "" || c == "" {
		return 0, false
	}

	if strings.Contains(c, q) {
		return substringScore, true
	}

	qr := []rune(q)
	qi := 0
	for _, r := range c {
		if qi < len(qr) && r == qr[qi] {
			score += subsequencePoints
			qi++
		}
	}

	for _, word := range strings.Fields(c) {
		if strings.HasPrefix(word, q) {
			score += wordPrefixBonus
			break
		}
	}

	isMatch = qi == len(qr) && score > len(qr)
	return score, isMatch
}

// Search returns the ranked matches for query within pool, best first,
// truncated to MaxResults. Queries shorter than MinQueryLength and empty
// pools yield an empty list, never an error.
func Search(query string, pool []string) []Result {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength || len(pool) == 0 {
		return []Result{}
	}

	results := make([]Result, 0, len(pool))
	for _, candidate := range pool {
		if score, ok := Score(query, candidate); ok {
			results = append(results, Result{Name: candidate, Score: score})
		}
	}

	// Stable sort keeps the alphabetical pool order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

// DuplicateWarning reports whether the caller should surface the advisory
// "check existing suppliers" warning: the query is long enough to be a
// deliberate name and either nothing matched or nothing matched exactly.
// The warning never blocks submission.
func DuplicateWarning(query string, results []Result) bool {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) <= 3 {
		return false
	}
	for _, r := range results {
		if strings.EqualFold(r.Name, trimmed) {
			return false
		}
	}
	return true
}

// Highlight wraps every case-insensitive occurrence of query in text with
// <mark> tags for display. It has no effect on ranking.
func Highlight(text, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return text
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, "<mark>$0</mark>")
}
