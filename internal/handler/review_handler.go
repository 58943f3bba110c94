package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/service"
)

// ReviewRequestDTO is the JSON payload for creating a new review. The
// author comes from the token.
type ReviewRequestDTO struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewResponseDTO is what we return for each review.
type ReviewResponseDTO struct {
	ID        string `json:"id"`
	CarID     string `json:"carId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"` // RFC 3339
}

// ReviewHandler ties HTTP requests to the ReviewService.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(rs *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: rs}
}

// RegisterRoutes registers:
//
//	GET  /cars/:id/reviews
//	POST /cars/:id/reviews
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	grp := rg.Group("/cars/:id/reviews")
	{
		grp.GET("", h.GetReviews)
		grp.POST("", auth, h.CreateReview)
	}
}

// GetReviews handles GET /api/cars/:id/reviews
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	reviews, err := h.reviewSvc.GetReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ReviewResponseDTO, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, ReviewResponseDTO{
			ID:        r.ID,
			CarID:     r.CarID,
			UserID:    r.UserID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateReview handles POST /api/cars/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req ReviewRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserID(c)

	newReview, err := h.reviewSvc.CreateReview(c.Request.Context(), c.Param("id"), userID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReviewResponseDTO{
		ID:        newReview.ID,
		CarID:     newReview.CarID,
		UserID:    newReview.UserID,
		Rating:    newReview.Rating,
		Comment:   newReview.Comment,
		CreatedAt: newReview.CreatedAt.Format(time.RFC3339),
	})
}
