package usecase

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// QueryPreprocessor normalizes user-supplied ingredient lists
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// NormalizeIngredients lowercases each ingredient and drops blank entries and
// repeats. Order of first occurrence is kept. Inner and surrounding spaces of
// non-blank entries are left alone since they take part in substring matching.
func (p *QueryPreprocessor) NormalizeIngredients(ingredients []string) []string {
	normalized := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if strings.TrimSpace(ing) == "" {
			continue
		}
		normalized = append(normalized, strings.ToLower(ing))
	}
	normalized = uniqueIngredients(normalized)

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] Input: %q -> Output: %q", ingredients, normalized)
	}

	return normalized
}

// CacheKey builds the result cache key for a normalized query against a
// given table generation.
// Format: "recipes:{generation}:{topN}:{quoted ingredients}"
func (p *QueryPreprocessor) CacheKey(generation uint64, topN int, query []string) string {
	quoted := make([]string, len(query))
	for i, q := range query {
		quoted[i] = strconv.Quote(q)
	}
	return fmt.Sprintf("recipes:%d:%d:%s", generation, topN, strings.Join(quoted, ","))
}

// uniqueIngredients removes repeated entries, keeping first occurrences
func uniqueIngredients(query []string) []string {
	seen := make(map[string]bool, len(query))
	out := make([]string, 0, len(query))
	for _, q := range query {
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
