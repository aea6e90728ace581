package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/macrolens/scanner/internal/domain"
	"github.com/macrolens/scanner/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Services bundles the usecases the handler exposes
type Services struct {
	Resolver *usecase.ResolutionService
	Syncer   *usecase.SyncService
	Monitor  *usecase.ConnectivityMonitor
	Profile  *usecase.ProfileService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{services: services, logger: logger.Named("handler")}
}

// addProductRequest is the body of POST /api/v1/products
type addProductRequest struct {
	Barcode       string   `json:"barcode" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	Calories      int      `json:"calories" binding:"gte=0"`
	Protein       float64  `json:"protein" binding:"gte=0"`
	Carbs         float64  `json:"carbs" binding:"gte=0"`
	Sugar         float64  `json:"sugar" binding:"gte=0"`
	Fats          float64  `json:"fats" binding:"gte=0"`
	SaturatedFats float64  `json:"saturatedFats" binding:"gte=0"`
	Fiber         float64  `json:"fiber" binding:"gte=0"`
	Sodium        float64  `json:"sodium" binding:"gte=0"`
	Allergens     []string `json:"allergens"`
	HealthScore   *int     `json:"healthScore" binding:"omitempty,gte=0,lte=100"`
}

type allergensRequest struct {
	Allergens []string `json:"allergens"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "macrolens-scanner",
		"version": Version,
	}
	if h.services.Monitor != nil {
		response["connectivity"] = h.services.Monitor.Status().State
	}
	c.JSON(http.StatusOK, response)
}

// ResolveProduct resolves a barcode through the remote store or the cache
func (h *Handler) ResolveProduct(c *gin.Context) {
	if h.services.Resolver == nil {
		notConfigured(c)
		return
	}

	barcode, err := usecase.NormalizeBarcode(c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.services.Resolver.Resolve(c.Request.Context(), barcode)
	switch {
	case result.Canceled:
		c.AbortWithStatus(http.StatusServiceUnavailable)
	case !result.Found():
		c.JSON(http.StatusNotFound, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// ListProducts returns cached products
func (h *Handler) ListProducts(c *gin.Context) {
	if h.services.Profile == nil {
		notConfigured(c)
		return
	}

	limit, ok := queryLimit(c, 0)
	if !ok {
		return
	}
	products, err := h.services.Profile.Products(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// AddProduct submits a product to the remote catalog
func (h *Handler) AddProduct(c *gin.Context) {
	if h.services.Syncer == nil {
		notConfigured(c)
		return
	}

	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	product := domain.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		Brand:         req.Brand,
		Category:      req.Category,
		Calories:      req.Calories,
		Protein:       req.Protein,
		Carbs:         req.Carbs,
		Sugar:         req.Sugar,
		Fats:          req.Fats,
		SaturatedFats: req.SaturatedFats,
		Fiber:         req.Fiber,
		Sodium:        req.Sodium,
		Allergens:     domain.NewAllergens(req.Allergens...),
		HealthScore:   -1,
	}
	if req.HealthScore != nil {
		product.HealthScore = *req.HealthScore
	}

	if err := h.services.Syncer.Submit(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Sync refreshes the cache from the remote catalog
func (h *Handler) Sync(c *gin.Context) {
	if h.services.Syncer == nil {
		notConfigured(c)
		return
	}

	report := h.services.Syncer.SyncAll(c.Request.Context())
	if report.Failed {
		c.JSON(http.StatusBadGateway, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Connectivity reports the remote reachability verdict. probe=true
// refreshes a stale verdict first.
func (h *Handler) Connectivity(c *gin.Context) {
	if h.services.Monitor == nil {
		notConfigured(c)
		return
	}

	if probe, _ := strconv.ParseBool(c.Query("probe")); probe {
		h.services.Monitor.IsOnline(c.Request.Context())
	}
	c.JSON(http.StatusOK, h.services.Monitor.Status())
}

// Stats summarizes the scan log
func (h *Handler) Stats(c *gin.Context) {
	if h.services.Profile == nil {
		notConfigured(c)
		return
	}

	stats, err := h.services.Profile.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// History returns recent scans
func (h *Handler) History(c *gin.Context) {
	if h.services.Profile == nil {
		notConfigured(c)
		return
	}

	limit, ok := queryLimit(c, usecase.DefaultHistoryLimit)
	if !ok {
		return
	}
	history, err := h.services.Profile.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// GetAllergens returns the allergen profile
func (h *Handler) GetAllergens(c *gin.Context) {
	if h.services.Profile == nil {
		notConfigured(c)
		return
	}

	allergens, err := h.services.Profile.Allergens(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allergensRequest{Allergens: allergens})
}

// SetAllergens replaces the allergen profile
func (h *Handler) SetAllergens(c *gin.Context) {
	if h.services.Profile == nil {
		notConfigured(c)
		return
	}

	var req allergensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	allergens, err := h.services.Profile.SetAllergens(c.Request.Context(), req.Allergens)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allergensRequest{Allergens: allergens})
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNetwork):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrStorage):
		status = http.StatusInternalServerError
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
