package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/model"
	"car-listing-service/internal/service"
)

// ListingHandler manages car listings.
type ListingHandler struct {
	cars *service.CarService
}

func NewListingHandler(cars *service.CarService) *ListingHandler {
	return &ListingHandler{cars: cars}
}

// RegisterRoutes registers the public and authenticated listing routes.
// auth must set the user id for the protected ones.
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/cars/mine", auth, h.Mine)
	rg.GET("/cars/:id", h.GetCar)
	rg.POST("/cars", auth, h.CreateCar)
	rg.PUT("/cars/:id", auth, h.UpdateCar)
	rg.DELETE("/cars/:id", auth, h.DeleteCar)
}

// GET /api/cars/:id
func (h *ListingHandler) GetCar(c *gin.Context) {
	car, err := h.cars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carResponse(car))
}

// GET /api/cars/mine
func (h *ListingHandler) Mine(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	cars, err := h.cars.Mine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]CarResponse, 0, len(cars))
	for i := range cars {
		out = append(out, carResponse(&cars[i]))
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/cars
func (h *ListingHandler) CreateCar(c *gin.Context) {
	var req model.CarInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)
	car, err := h.cars.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, carResponse(car))
}

// PUT /api/cars/:id
func (h *ListingHandler) UpdateCar(c *gin.Context) {
	var req model.CarInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)
	car, err := h.cars.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, carResponse(car))
}

// DELETE /api/cars/:id
func (h *ListingHandler) DeleteCar(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	if err := h.cars.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// CarResponse is a car plus the URL of its uploaded photo, if any.
type CarResponse struct {
	model.Car
	PhotoURL string `json:"photo_url,omitempty"`
}

func carResponse(car *model.Car) CarResponse {
	resp := CarResponse{Car: *car}
	if car.PhotoFileID != "" {
		resp.PhotoURL = "/api/cars/" + car.ID + "/image"
	}
	return resp
}
