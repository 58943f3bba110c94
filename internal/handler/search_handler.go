package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/search"
)

// SearchHandler exposes the read-only search features.
type SearchHandler struct {
	svc *search.Service
}

func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// RegisterRoutes registers:
//
//	GET /search/advanced
//	GET /search/filter-options
//	GET /search/compare?carIds=a,b
//	GET /search/similar/:carId
//	GET /search/trending
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grp := rg.Group("/search")
	grp.GET("/advanced", h.Advanced)
	grp.GET("/filter-options", h.FilterOptions)
	grp.GET("/compare", h.Compare)
	grp.GET("/similar/:carId", h.Similar)
	grp.GET("/trending", h.Trending)
}

func (h *SearchHandler) Advanced(c *gin.Context) {
	res, err := h.svc.Advanced(c.Request.Context(), search.ParseParams(c.Request.URL.Query()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) FilterOptions(c *gin.Context) {
	opts, err := h.svc.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filters": opts})
}

func (h *SearchHandler) Compare(c *gin.Context) {
	res, err := h.svc.Compare(c.Request.Context(), search.ParseIDs(c.Query("carIds")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) Similar(c *gin.Context) {
	limit := search.PositiveInt(c.Query("limit"), search.DefaultSimilarLimit)
	res, err := h.svc.Similar(c.Request.Context(), c.Param("carId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) Trending(c *gin.Context) {
	limit := search.PositiveInt(c.Query("limit"), search.DefaultTrendingLimit)
	cars, err := h.svc.Trending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trendingCars": cars})
}
