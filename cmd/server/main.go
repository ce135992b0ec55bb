package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recipelens/backend/config"
	httpDelivery "github.com/recipelens/backend/internal/delivery/http"
	"github.com/recipelens/backend/internal/domain"
	"github.com/recipelens/backend/internal/infrastructure/cache"
	"github.com/recipelens/backend/internal/infrastructure/dataset"
	"github.com/recipelens/backend/internal/infrastructure/images"
	"github.com/recipelens/backend/internal/infrastructure/sqlite"
	"github.com/recipelens/backend/internal/usecase"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting RecipeLens Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Dataset: %s (%s)", cfg.Dataset.Path, cfg.Dataset.Format)
	log.Printf("Images: %s", cfg.Images.Dir)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	fsys := afero.NewOsFs()

	// Initialize infrastructure dependencies
	source := newDatasetSource(cfg, fsys)

	imageStore := images.NewStore(fsys, cfg.Images.Dir)
	if cfg.Server.Environment == "development" {
		imageStore.SetDebug(true)
		log.Printf("Image store debug mode enabled")
	}

	var resultCache domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		memoryCache := cache.NewMemoryCache(cache.DefaultCleanupInterval)
		defer memoryCache.Close()
		resultCache = memoryCache
		log.Printf("Cache TTL: %s", cfg.Cache.TTL)
	}

	// Initialize usecase layer
	recipeService := usecase.NewRecipeService(
		source,
		imageStore,
		resultCache,
		usecase.RecipeServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			DefaultTopN:        cfg.Matching.DefaultTopN,
			MaxTopN:            cfg.Matching.MaxTopN,
			LazyLoad:           cfg.Dataset.LazyLoad,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)

	log.Printf("Matching: top_n=%d, max_top_n=%d, lazy_load=%v, debug=%v",
		cfg.Matching.DefaultTopN,
		cfg.Matching.MaxTopN,
		cfg.Dataset.LazyLoad,
		cfg.Matching.EnableDebugLogging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed startup load is not fatal; the service can load later on demand
	if cfg.Dataset.LoadOnStartup {
		report, err := recipeService.Load(ctx)
		if err != nil {
			log.Printf("WARNING: Startup dataset load failed: %v", err)
		} else {
			log.Printf("Dataset ready: %d recipes", report.Rows)
		}
		rows := 0
		if report != nil {
			rows = report.Rows
		}
		httpDelivery.RecordDatasetLoad(rows, err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(recipeService, imageStore)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down (timeout %s)", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Printf("Server stopped")
}

// newDatasetSource picks the configured dataset backend
func newDatasetSource(cfg *config.Config, fsys afero.Fs) domain.DatasetSource {
	if cfg.Dataset.Format == "sqlite" {
		return sqlite.NewSource(cfg.Dataset.Path)
	}
	return dataset.NewCSVSource(fsys, cfg.Dataset.Path)
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
