package http

import (
	"context"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/recipelens/backend/internal/domain"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// RecipeService is the usecase surface the handlers depend on
type RecipeService interface {
	Recommend(ctx context.Context, request *domain.RecommendRequest) (*domain.RecommendResponse, error)
	Load(ctx context.Context) (*domain.LoadReport, error)
	Status() domain.DatasetStatus
	Ready() bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recipes RecipeService
	images  domain.ImageStore
}

// NewHandler creates a new HTTP handler. Either dependency may be nil;
// the affected endpoints then answer 501.
func NewHandler(recipes RecipeService, images domain.ImageStore) *Handler {
	return &Handler{
		recipes: recipes,
		images:  images,
	}
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeEmptyQuery      = "EMPTY_QUERY"
	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	CodeImageNotFound   = "IMAGE_NOT_FOUND"
	CodeNotLoaded       = "NOT_LOADED"
	CodeSchema          = "SCHEMA_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeInternal        = "INTERNAL"
)

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "recipelens-backend",
		"version":        Version,
		"dataset_loaded": h.recipes != nil && h.recipes.Ready(),
	})
}

// ReadinessCheck answers 200 once a recipe table is loaded
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.recipes == nil || !h.recipes.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// RecommendRecipes handles recipe recommendation requests
func (h *Handler) RecommendRecipes(c *gin.Context) {
	if h.recipes == nil {
		respondNotConfigured(c, "recipe service not configured")
		return
	}

	var req domain.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}

	resp, err := h.recipes.Recommend(c.Request.Context(), &req)
	if err != nil {
		recommendationsTotal.WithLabelValues(outcomeFor(err)).Inc()
		respondError(c, err)
		return
	}

	recommendationsTotal.WithLabelValues("ok").Inc()
	recommendationResults.Observe(float64(len(resp.Recipes)))
	c.JSON(http.StatusOK, resp)
}

// LoadDataset (re)loads the recipe table and reports what was read
func (h *Handler) LoadDataset(c *gin.Context) {
	if h.recipes == nil {
		respondNotConfigured(c, "recipe service not configured")
		return
	}

	report, err := h.recipes.Load(c.Request.Context())
	if err != nil {
		datasetLoadsTotal.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	}

	datasetLoadsTotal.WithLabelValues("ok").Inc()
	datasetRows.Set(float64(report.Rows))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Dataset loaded successfully. Rows: " + strconv.Itoa(report.Rows),
		"rows":       report.Rows,
		"skipped":    report.Skipped,
		"source":     report.Source,
		"generation": report.Generation,
	})
}

// DatasetStatus reports the currently loaded table
func (h *Handler) DatasetStatus(c *gin.Context) {
	if h.recipes == nil {
		respondNotConfigured(c, "recipe service not configured")
		return
	}
	c.JSON(http.StatusOK, h.recipes.Status())
}

// ServeImage streams a recipe image by base name
func (h *Handler) ServeImage(c *gin.Context) {
	if h.images == nil {
		respondNotConfigured(c, "image store not configured")
		return
	}

	rc, file, err := h.images.Open(c.Param("name"))
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) || errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "image not found", Code: CodeImageNotFound})
			return
		}
		respondError(c, err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

// statusFor maps a domain error onto an HTTP status and error code
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, CodeEmptyQuery
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, domain.ErrDatasetNotFound):
		return http.StatusNotFound, CodeDatasetNotFound
	case errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound, CodeImageNotFound
	case errors.Is(err, domain.ErrNotLoaded):
		return http.StatusServiceUnavailable, CodeNotLoaded
	case errors.Is(err, domain.ErrSchema):
		return http.StatusUnprocessableEntity, CodeSchema
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondError writes the error envelope for err
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func respondNotConfigured(c *gin.Context, msg string) {
	c.JSON(http.StatusNotImplemented, ErrorResponse{Error: msg, Code: CodeNotConfigured})
}

// outcomeFor labels a failed recommendation for metrics
func outcomeFor(err error) string {
	_, code := statusFor(err)
	return code
}
