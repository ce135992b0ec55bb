package domain

import (
	"fmt"
	"strings"
	"time"
)

// IngredientSeparator is the literal delimiter between ingredients in the dataset
const IngredientSeparator = ", "

// Recipe represents a single row of the recipe dataset
type Recipe struct {
	ID               int      // Ordinal data-row position in the source
	Title            string   // Free text
	RawIngredients   string   // Comma-delimited ingredient string as authored
	IngredientTokens []string // Lowercased parts of RawIngredients
	Instructions     string
	Rating           *float64 // nil when the column is absent or unparsable
	ImageName        *string  // nil when the column is absent
}

// NewRecipe builds a Recipe and derives its ingredient tokens
func NewRecipe(id int, title, rawIngredients, instructions string, rating *float64, imageName *string) Recipe {
	return Recipe{
		ID:               id,
		Title:            title,
		RawIngredients:   rawIngredients,
		IngredientTokens: TokenizeIngredients(rawIngredients),
		Instructions:     instructions,
		Rating:           rating,
		ImageName:        imageName,
	}
}

// TokenizeIngredients splits a raw ingredient string on ", " and lowercases each part.
// An empty string yields a single empty token.
func TokenizeIngredients(raw string) []string {
	parts := strings.Split(raw, IngredientSeparator)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return parts
}

// DisplayIngredients splits a raw ingredient string for display, preserving case
func DisplayIngredients(raw string) []string {
	return strings.Split(raw, IngredientSeparator)
}

// RowError records a dataset row that was skipped during load
type RowError struct {
	Row int   `json:"row"`
	Err error `json:"-"`
}

// Error implements error
func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap returns the underlying parse failure
func (e RowError) Unwrap() error {
	return e.Err
}

// LoadResult is what a DatasetSource produces
type LoadResult struct {
	Recipes   []Recipe
	RowErrors []RowError
	Source    string
}

// RecipeTable is the immutable in-memory collection of loaded recipes.
// A reload builds a new table; an existing table is never mutated.
type RecipeTable struct {
	Recipes    []Recipe
	RowErrors  []RowError
	Source     string
	Generation uint64
	LoadedAt   time.Time
}

// Len returns the number of recipes in the table
func (t *RecipeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Recipes)
}

// LoadReport summarizes a completed load
type LoadReport struct {
	Rows       int           `json:"rows"`
	Skipped    int           `json:"skipped"`
	Source     string        `json:"source"`
	Generation uint64        `json:"generation"`
	Duration   time.Duration `json:"-"`
}

// DatasetStatus describes the currently loaded table
type DatasetStatus struct {
	Loaded     bool       `json:"loaded"`
	Rows       int        `json:"rows"`
	Skipped    int        `json:"skipped"`
	Source     string     `json:"source,omitempty"`
	Generation uint64     `json:"generation"`
	LoadedAt   *time.Time `json:"loaded_at,omitempty"`
}
