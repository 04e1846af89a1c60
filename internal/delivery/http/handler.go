package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecoswap/backend/internal/domain"
	"github.com/ecoswap/backend/internal/infrastructure/classifier"
	"github.com/ecoswap/backend/internal/usecase"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	local     *usecase.LocalClassifier
	suppliers domain.SupplierFinder
	log       *slog.Logger
}

// NewHandler creates a new HTTP handler. A nil suppliers finder makes
// find_suppliers answer 501.
func NewHandler(local *usecase.LocalClassifier, suppliers domain.SupplierFinder, logger *slog.Logger) *Handler {
	if local == nil {
		local = usecase.NewLocalClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		local:     local,
		suppliers: suppliers,
		log:       logger.With("component", "http_handler"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ecoswap-classifier",
		"version": Version,
	})
}

// Classify dispatches on requestType.
func (h *Handler) Classify(c *gin.Context) {
	var req classifier.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, http.StatusBadRequest, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	switch req.RequestType {
	case classifier.RequestAnalyzeProduct:
		h.analyzeProduct(c, req)
	case classifier.RequestFindSuppliers:
		h.findSuppliers(c, req)
	default:
		h.abort(c, http.StatusBadRequest, fmt.Errorf("%w: unknown requestType %q", domain.ErrInvalidRequest, req.RequestType))
	}
}

func (h *Handler) analyzeProduct(c *gin.Context, req classifier.Request) {
	if req.ProductInfo == nil {
		h.abort(c, http.StatusBadRequest, fmt.Errorf("%w: productInfo is required", domain.ErrInvalidRequest))
		return
	}

	info := *req.ProductInfo
	description := info.Description
	if strings.TrimSpace(description) == "" {
		description = info.FullText
	}
	product := domain.NewProductRecord(info.Code, description, info.Material)
	if product.Empty() {
		h.abort(c, http.StatusBadRequest, fmt.Errorf("%w: productInfo.description is required", domain.ErrInvalidRequest))
		return
	}

	verdict := h.local.Classify(product)
	h.log.Debug("analyzed product",
		"request_id", c.GetString(requestIDKey),
		"sustainable", verdict.IsSustainable,
		"score", verdict.SustainabilityScore,
	)
	c.JSON(http.StatusOK, toAnalyzeResponse(verdict))
}

func (h *Handler) findSuppliers(c *gin.Context, req classifier.Request) {
	if h.suppliers == nil {
		h.abort(c, http.StatusNotImplemented, errors.New("supplier directory not configured"))
		return
	}

	names := make([]string, 0, len(req.Alternatives))
	for _, n := range req.Alternatives {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		h.abort(c, http.StatusBadRequest, fmt.Errorf("%w: alternatives are required", domain.ErrInvalidRequest))
		return
	}

	found, err := h.suppliers.FindSuppliers(c.Request.Context(), names)
	if err != nil {
		h.abort(c, http.StatusInternalServerError, err)
		return
	}

	resp := make(classifier.SuppliersResponse, len(names))
	for _, n := range names {
		list := make([]classifier.WireSupplier, 0, len(found[n]))
		for _, s := range found[n] {
			list = append(list, classifier.WireSupplier{Name: s.Name, Website: s.Website})
		}
		resp[n] = list
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) abort(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("classify request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func toAnalyzeResponse(v domain.Verdict) classifier.AnalyzeResponse {
	sustainable := v.IsSustainable
	score := float64(v.SustainabilityScore)
	alts := make([]classifier.WireAlternative, 0, len(v.Alternatives))
	for _, a := range v.Alternatives {
		alts = append(alts, classifier.WireAlternative{
			Name:        a.Name,
			Description: a.Description,
			Benefits:    a.Benefits,
			SearchTerms: a.SearchTerms,
		})
	}
	return classifier.AnalyzeResponse{
		IsSustainable:       &sustainable,
		Reason:              v.Reason,
		SustainabilityScore: &score,
		Alternatives:        alts,
	}
}
