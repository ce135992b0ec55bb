package usecase

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/recipelens/backend/internal/domain"
)

// DefaultTopN is the number of recipes returned when no limit is given
const DefaultTopN = 10

// ctxCheckInterval is how many recipes are scored between context checks
const ctxCheckInterval = 512

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	DefaultTopN        int
	EnableDebugLogging bool
}

// RecipeMatcher scores recipes by ingredient containment
type RecipeMatcher struct {
	defaultTopN        int
	enableDebugLogging bool
}

// NewRecipeMatcher creates a matcher with the given configuration
func NewRecipeMatcher(config MatchConfig) *RecipeMatcher {
	topN := config.DefaultTopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	return &RecipeMatcher{
		defaultTopN:        topN,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match scores every recipe in table against query and returns the best topN.
//
// A query ingredient counts once for a recipe when it is a substring of at
// least one of the recipe's ingredient tokens. Recipes without a match are
// left out. A repeated query ingredient is counted once. The score is
// matches / len(tokens); results are ordered by score descending, ties in
// table order. query must already be lowercased.
func (m *RecipeMatcher) Match(
	ctx context.Context,
	table *domain.RecipeTable,
	query []string,
	topN int,
) ([]domain.ScoredRecipe, error) {
	if table == nil {
		return nil, domain.ErrNotLoaded
	}
	if len(query) == 0 {
		return nil, domain.ErrEmptyQuery
	}
	query = uniqueIngredients(query)
	if topN <= 0 {
		topN = m.defaultTopN
	}

	var scored []domain.ScoredRecipe
	var skipped []int

	for i := range table.Recipes {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tokens := table.Recipes[i].IngredientTokens
		if len(tokens) == 0 {
			skipped = append(skipped, i)
			continue
		}

		matches := countMatches(query, tokens)
		if matches == 0 {
			continue
		}

		scored = append(scored, domain.ScoredRecipe{
			Index:   i,
			Matches: matches,
			Score:   float64(matches) / float64(len(tokens)),
		})
	}

	if len(skipped) > 0 {
		log.Printf("[MATCH] Skipped %d recipe(s) without ingredient tokens (first index %d)", len(skipped), skipped[0])
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}

	if m.enableDebugLogging {
		log.Printf("[MATCH] Query %q: %d recipe(s) returned", query, len(scored))
		for _, s := range scored {
			log.Printf("[MATCH] %q | matches: %d/%d | score: %.3f",
				table.Recipes[s.Index].Title, s.Matches, len(table.Recipes[s.Index].IngredientTokens), s.Score)
		}
	}

	return scored, nil
}

// countMatches returns how many query ingredients are contained in at least one token
func countMatches(query, tokens []string) int {
	matches := 0
	for _, q := range query {
		for _, token := range tokens {
			if strings.Contains(token, q) {
				matches++
				break
			}
		}
	}
	return matches
}
