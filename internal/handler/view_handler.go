package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/service"
)

// ViewHandler records car views and reports their statistics.
type ViewHandler struct {
	views *service.ViewService
}

func NewViewHandler(views *service.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

// RegisterRoutes registers the view routes. optionalAuth attaches the
// viewer when a token is sent.
func (h *ViewHandler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	rg.POST("/cars/:id/view", optionalAuth, h.RecordView)
	rg.GET("/cars/:id/stats", h.Stats)
}

// POST /api/cars/:id/view
func (h *ViewHandler) RecordView(c *gin.Context) {
	viewerID, _ := middleware.UserID(c)
	recorded, err := h.views.Record(c.Request.Context(), c.Param("id"), viewerID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}

// GET /api/cars/:id/stats
func (h *ViewHandler) Stats(c *gin.Context) {
	stats, err := h.views.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
