package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/service"
)

type FavoriteHandler struct {
	favorites *service.FavoriteService
}

func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// RegisterRoutes registers the favorites routes, all behind auth.
func (h *FavoriteHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	grp := rg.Group("/favorites", auth)
	grp.GET("", h.List)
	grp.POST("/:carId", h.Add)
	grp.DELETE("/:carId", h.Remove)
}

func (h *FavoriteHandler) List(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	favs, err := h.favorites.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	added, err := h.favorites.Add(c.Request.Context(), userID, c.Param("carId"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"added": added})
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	if err := h.favorites.Remove(c.Request.Context(), userID, c.Param("carId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}
