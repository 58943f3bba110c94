package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/service"
)

// maxPhotoSize caps uploaded images.
const maxPhotoSize = 10 << 20

type PhotoHandler struct {
	cars *service.CarService
}

func NewPhotoHandler(cars *service.CarService) *PhotoHandler {
	return &PhotoHandler{cars: cars}
}

func (h *PhotoHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/cars/:id/image", auth, h.UploadPhoto)
	rg.GET("/cars/:id/image", h.DownloadPhoto)
}

func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open file"})
		return
	}
	defer file.Close()

	userID, _ := middleware.UserID(c)
	photoID, err := h.cars.UploadPhoto(c.Request.Context(), userID, c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_id": photoID})
}

func (h *PhotoHandler) DownloadPhoto(c *gin.Context) {
	data, err := h.cars.Photo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=photo")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
