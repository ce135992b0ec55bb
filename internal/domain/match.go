package domain

// ScoredRecipe is the result of matching a query against one recipe
type ScoredRecipe struct {
	Index   int     // Position in RecipeTable.Recipes
	Matches int     // Query ingredients contained in at least one token
	Score   float64 // Matches / len(IngredientTokens)
}

// RecommendRequest represents a recipe recommendation request
type RecommendRequest struct {
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	TopN        int      `json:"top_n,omitempty" yaml:"top_n,omitempty"`
}

// RecipeResult is a recommended recipe rendered for the caller
type RecipeResult struct {
	ID              int      `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Ingredients     []string `json:"ingredients" yaml:"ingredients"`
	Instructions    string   `json:"instructions" yaml:"instructions"`
	Rating          *float64 `json:"rating" yaml:"rating"`
	ImageName       *string  `json:"image_name" yaml:"image_name"`
	ImageURL        string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	SimilarityScore float64  `json:"similarity_score" yaml:"similarity_score"`
}

// RecommendResponse wraps the ranked recipes
type RecommendResponse struct {
	Recipes []RecipeResult `json:"recipes" yaml:"recipes"`
}
