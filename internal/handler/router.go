package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"car-listing-service/internal/middleware"
	"car-listing-service/internal/search"
	"car-listing-service/internal/service"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Search    *search.Service
	Cars      *service.CarService
	Reviews   *service.ReviewService
	Views     *service.ViewService
	Favorites *service.FavoriteService
	Auth      *middleware.JWTAuth

	// Limiter is optional.
	Limiter        *middleware.RateLimiter
	RequestTimeout time.Duration
	TrustedProxies []string
}

// NewRouter builds the gin engine. Operational routes live at the root,
// everything else under /api.
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.RequestLogger())
	if d.RequestTimeout > 0 {
		api.Use(middleware.Timeout(d.RequestTimeout))
	}
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware())
	}

	auth := d.Auth.RequireAuth()
	NewSearchHandler(d.Search).RegisterRoutes(api)
	NewListingHandler(d.Cars).RegisterRoutes(api, auth)
	NewReviewHandler(d.Reviews).RegisterRoutes(api, auth)
	NewViewHandler(d.Views).RegisterRoutes(api, d.Auth.OptionalAuth())
	NewFavoriteHandler(d.Favorites).RegisterRoutes(api, auth)
	if d.Cars.PhotosEnabled() {
		NewPhotoHandler(d.Cars).RegisterRoutes(api, auth)
	}
	return r, nil
}
