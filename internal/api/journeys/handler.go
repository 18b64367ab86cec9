package journeys

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voyago/tripcraft/internal/domain"
	"github.com/voyago/tripcraft/internal/service"
)

// Handler handles journey and generation API requests
type Handler struct {
	journeyService    *service.JourneyService
	generationService *service.GenerationService
}

// NewHandler creates a new journeys handler
func NewHandler(journeyService *service.JourneyService, generationService *service.GenerationService) *Handler {
	return &Handler{
		journeyService:    journeyService,
		generationService: generationService,
	}
}

// RegisterRoutes registers journey routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	journeys := r.Group("/journeys")
	{
		journeys.POST("", h.CreateJourney)
		journeys.GET("", h.ListJourneys)
		journeys.GET("/:id", h.GetJourney)
		journeys.PUT("/:id", h.UpdateJourney)
		journeys.DELETE("/:id", h.DeleteJourney)
		journeys.POST("/:id/generations", h.Generate)
		journeys.GET("/:id/generations", h.ListGenerations)
		journeys.GET("/:id/errors", h.ListErrorLogs)
	}

	generations := r.Group("/generations")
	{
		generations.POST("/:id/accept", h.AcceptGeneration)
		generations.POST("/:id/reject", h.RejectGeneration)
	}
}

// Journey handlers

func (h *Handler) CreateJourney(c *gin.Context) {
	var req domain.CreateJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	journey, err := h.journeyService.CreateJourney(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, journey)
}

func (h *Handler) ListJourneys(c *gin.Context) {
	journeys, err := h.journeyService.ListJourneys(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"journeys": journeys})
}

func (h *Handler) GetJourney(c *gin.Context) {
	journey, err := h.journeyService.GetJourney(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, journey)
}

func (h *Handler) UpdateJourney(c *gin.Context) {
	var req domain.UpdateJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	journey, err := h.journeyService.UpdateJourney(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, journey)
}

func (h *Handler) DeleteJourney(c *gin.Context) {
	if err := h.journeyService.DeleteJourney(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Generation handlers

func (h *Handler) Generate(c *gin.Context) {
	var req domain.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	rec, err := h.generationService.Generate(c.Request.Context(), c.Param("id"), req.Preferences)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListGenerations(c *gin.Context) {
	records, err := h.generationService.ListGenerations(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generations": records})
}

func (h *Handler) ListErrorLogs(c *gin.Context) {
	records, err := h.generationService.ListErrorLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": records})
}

func (h *Handler) AcceptGeneration(c *gin.Context) {
	var req domain.AcceptGenerationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	rec, err := h.generationService.AcceptGeneration(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) RejectGeneration(c *gin.Context) {
	rec, err := h.generationService.RejectGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// writeError maps domain errors to HTTP statuses. Gateway failures keep
// their classification code in the body so callers can branch on it.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) {
			status := http.StatusBadGateway
			switch gwErr.Code {
			case domain.CodeValidation:
				status = http.StatusUnprocessableEntity
			case domain.CodeRateLimit:
				status = http.StatusTooManyRequests
			}
			c.JSON(status, gin.H{"error": gwErr.Message, "code": string(gwErr.Code)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
