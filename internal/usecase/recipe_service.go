package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/recipelens/backend/internal/domain"
)

// ImageRoutePrefix is prepended to image names to build image URLs
const ImageRoutePrefix = "/api/v1/images/"

// maxLoggedRowErrors caps how many skipped rows are logged per load
const maxLoggedRowErrors = 5

// RecipeServiceConfig holds configuration for the recipe service
type RecipeServiceConfig struct {
	CacheTTL           time.Duration
	DefaultTopN        int
	MaxTopN            int
	LazyLoad           bool
	EnableDebugLogging bool
}

// RecipeService owns the loaded recipe table and answers recommendation queries.
// The table is swapped atomically on reload; queries read one snapshot.
type RecipeService struct {
	source       domain.DatasetSource
	images       domain.ImageStore
	cache        domain.CacheRepository
	matcher      *RecipeMatcher
	preprocessor *QueryPreprocessor

	table      atomic.Pointer[domain.RecipeTable]
	loadMu     sync.Mutex
	loads      singleflight.Group
	generation uint64

	cacheTTL    time.Duration
	defaultTopN int
	maxTopN     int
	lazyLoad    bool
}

// NewRecipeService creates a recipe service. images and cache may be nil.
func NewRecipeService(
	source domain.DatasetSource,
	images domain.ImageStore,
	cache domain.CacheRepository,
	config RecipeServiceConfig,
) *RecipeService {
	defaultTopN := config.DefaultTopN
	if defaultTopN <= 0 {
		defaultTopN = DefaultTopN
	}
	maxTopN := config.MaxTopN
	if maxTopN < defaultTopN {
		maxTopN = defaultTopN
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &RecipeService{
		source: source,
		images: images,
		cache:  cache,
		matcher: NewRecipeMatcher(MatchConfig{
			DefaultTopN:        defaultTopN,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		preprocessor: NewQueryPreprocessor(config.EnableDebugLogging),
		cacheTTL:     cacheTTL,
		defaultTopN:  defaultTopN,
		maxTopN:      maxTopN,
		lazyLoad:     config.LazyLoad,
	}
}

// Load (re)reads the dataset and swaps in the new table once complete.
// Loads are serialized; on failure the previous table stays in place.
func (s *RecipeService) Load(ctx context.Context) (*domain.LoadReport, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	result, err := s.source.LoadRecipes(ctx)
	if err != nil {
		log.Printf("[LOAD] Failed to load dataset: %v", err)
		return nil, err
	}

	s.generation++
	table := &domain.RecipeTable{
		Recipes:    result.Recipes,
		RowErrors:  result.RowErrors,
		Source:     result.Source,
		Generation: s.generation,
		LoadedAt:   time.Now(),
	}
	s.table.Store(table)

	report := &domain.LoadReport{
		Rows:       len(table.Recipes),
		Skipped:    len(table.RowErrors),
		Source:     table.Source,
		Generation: table.Generation,
		Duration:   time.Since(start),
	}

	log.Printf("[LOAD] Loaded %d recipes from %s (generation %d, %d skipped, %s)",
		report.Rows, report.Source, report.Generation, report.Skipped, report.Duration)
	for i, rowErr := range table.RowErrors {
		if i == maxLoggedRowErrors {
			log.Printf("[LOAD] ... %d more skipped row(s)", len(table.RowErrors)-i)
			break
		}
		log.Printf("[LOAD] Skipped %v", rowErr)
	}

	return report, nil
}

// ensureLoaded returns the current table, loading it first when lazy loading
// is enabled. Concurrent callers share a single load.
func (s *RecipeService) ensureLoaded(ctx context.Context) (*domain.RecipeTable, error) {
	if table := s.table.Load(); table != nil {
		return table, nil
	}
	if !s.lazyLoad {
		return nil, domain.ErrNotLoaded
	}

	// The shared load must not be aborted when the request that started it goes away
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := s.loads.Do("load", func() (interface{}, error) {
		if s.table.Load() != nil {
			return nil, nil
		}
		return s.Load(loadCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotLoaded, err)
	}

	table := s.table.Load()
	if table == nil {
		return nil, domain.ErrNotLoaded
	}
	return table, nil
}

// Recommend ranks recipes against the requested ingredients.
// Flow: normalize query -> snapshot table -> check cache -> match -> render -> cache
func (s *RecipeService) Recommend(
	ctx context.Context,
	request *domain.RecommendRequest,
) (*domain.RecommendResponse, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}
	if request.TopN < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative", domain.ErrInvalidRequest)
	}

	query := s.preprocessor.NormalizeIngredients(request.Ingredients)
	if len(query) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	table, err := s.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	topN := s.resolveTopN(request.TopN)
	cacheKey := s.preprocessor.CacheKey(table.Generation, topN, query)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	scored, err := s.matcher.Match(ctx, table, query, topN)
	if err != nil {
		return nil, err
	}

	response := &domain.RecommendResponse{
		Recipes: make([]domain.RecipeResult, 0, len(scored)),
	}
	for _, sr := range scored {
		response.Recipes = append(response.Recipes, s.render(table.Recipes[sr.Index], sr.Score))
	}

	if err := s.setInCache(ctx, cacheKey, response); err != nil {
		log.Printf("[CACHE] Failed to cache recommendation: %v", err)
	}

	return response, nil
}

// resolveTopN applies the default and caps the request at maxTopN
func (s *RecipeService) resolveTopN(requested int) int {
	if requested <= 0 {
		return s.defaultTopN
	}
	if requested > s.maxTopN {
		return s.maxTopN
	}
	return requested
}

// render builds the caller-facing view of a recipe. image_name is passed
// through only when an image file exists for it.
func (s *RecipeService) render(recipe domain.Recipe, score float64) domain.RecipeResult {
	result := domain.RecipeResult{
		ID:              recipe.ID,
		Title:           recipe.Title,
		Ingredients:     domain.DisplayIngredients(recipe.RawIngredients),
		Instructions:    recipe.Instructions,
		Rating:          recipe.Rating,
		SimilarityScore: score,
	}

	if recipe.ImageName != nil && s.images != nil {
		if _, err := s.images.Locate(*recipe.ImageName); err == nil {
			name := *recipe.ImageName
			result.ImageName = &name
			result.ImageURL = ImageRoutePrefix + url.PathEscape(name)
		} else if !errors.Is(err, domain.ErrImageNotFound) {
			log.Printf("[IMAGES] Lookup failed for %q: %v", *recipe.ImageName, err)
		}
	}

	return result
}

// Status reports the currently loaded table
func (s *RecipeService) Status() domain.DatasetStatus {
	table := s.table.Load()
	if table == nil {
		return domain.DatasetStatus{}
	}
	loadedAt := table.LoadedAt
	return domain.DatasetStatus{
		Loaded:     true,
		Rows:       len(table.Recipes),
		Skipped:    len(table.RowErrors),
		Source:     table.Source,
		Generation: table.Generation,
		LoadedAt:   &loadedAt,
	}
}

// Ready reports whether a table has been loaded
func (s *RecipeService) Ready() bool {
	return s.table.Load() != nil
}

// Table returns the current table snapshot, or nil before the first load
func (s *RecipeService) Table() *domain.RecipeTable {
	return s.table.Load()
}

// getFromCache retrieves a rendered response from cache
func (s *RecipeService) getFromCache(ctx context.Context, key string) (*domain.RecommendResponse, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var response domain.RecommendResponse
	switch v := value.(type) {
	case []byte:
		if err := json.Unmarshal(v, &response); err != nil {
			return nil, domain.ErrCacheMiss
		}
	case *domain.RecommendResponse:
		response = *v
	default:
		return nil, domain.ErrCacheMiss
	}

	if s.matcher.enableDebugLogging {
		log.Printf("[CACHE] Hit for %s", key)
	}
	return &response, nil
}

// setInCache stores a rendered response in cache
func (s *RecipeService) setInCache(ctx context.Context, key string, response *domain.RecommendResponse) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, response, s.cacheTTL)
}
