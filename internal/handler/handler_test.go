package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/middleware"
	"car-listing-service/internal/model"
	"car-listing-service/internal/repository/memory"
	"car-listing-service/internal/search"
	"car-listing-service/internal/service"
)

const testSecret = "handler-test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

type fixture struct {
	st     *memory.Store
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	r, err := NewRouter(Deps{
		Search:    search.NewService(st.Listings, st.Reviews, st.Views),
		Cars:      service.NewCarService(st.Listings, nil),
		Reviews:   service.NewReviewService(st.Reviews, st.Listings),
		Views:     service.NewViewService(st.Listings, st.Views, st.Favorites),
		Favorites: service.NewFavoriteService(st.Favorites, st.Listings),
		Auth:      middleware.NewJWTAuth(testSecret, []string{"HS256"}),
	})
	require.NoError(t, err)
	return &fixture{st: st, router: r}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (f *fixture) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) put(t *testing.T, c model.Car) {
	t.Helper()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, f.st.Listings.Create(context.Background(), &c))
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdvancedSearch_Shape(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a", Company: "Toyota", Color: "Red", Engine: "petrol", Price: 100})
	f.put(t, model.Car{ID: "b", Company: "BMW", Color: "Blue", Engine: "diesel", Price: 200})

	w := f.do(t, http.MethodGet, "/api/search/advanced?colors=red&sortBy=bogus", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res search.SearchResult
	decode(t, w, &res)
	require.Len(t, res.Cars, 1)
	assert.Equal(t, "a", res.Cars[0].ID)
	assert.Equal(t, int64(1), res.Pagination.Total)
	assert.Equal(t, "createdAt", res.Filters.SortBy)
	assert.Equal(t, []string{"red"}, res.Filters.Colors)
}

func TestAdvancedSearch_EmptyStore(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/search/advanced", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cars":[]`)
}

func TestFilterOptions_Wrapped(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/search/filter-options", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	decode(t, w, &body)
	assert.Contains(t, body, "filters")
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a", Price: 100, Mileage: 10})
	f.put(t, model.Car{ID: "b", Price: 300, Mileage: 5})

	w := f.do(t, http.MethodGet, "/api/search/compare?carIds=a,b", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res search.Comparison
	decode(t, w, &res)
	assert.Equal(t, "a", res.Insights.Cheapest)
	assert.Equal(t, int64(200), res.Insights.PriceDifference)
	assert.Nil(t, res.Insights.HighestRated)

	w = f.do(t, http.MethodGet, "/api/search/compare?carIds=a", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestSimilar_UnknownCar(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/search/similar/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewThenTrending(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a", Company: "Audi"})

	w := f.do(t, http.MethodPost, "/api/cars/a/view", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recorded":true}`, w.Body.String())

	// Same client address within the window.
	w = f.do(t, http.MethodPost, "/api/cars/a/view", token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recorded":false}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/search/trending", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		TrendingCars []model.TrendingCar `json:"trendingCars"`
	}
	decode(t, w, &body)
	require.Len(t, body.TrendingCars, 1)
	assert.Equal(t, int64(1), body.TrendingCars[0].ViewCount)

	w = f.do(t, http.MethodGet, "/api/cars/a/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats model.ViewStats
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats.TotalViews)
	assert.Equal(t, int64(1), stats.UniqueVisitors)
}

func TestRecordView_UnknownCar(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/cars/missing/view", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingLifecycle(t *testing.T) {
	f := newFixture(t)
	owner, other := token(t, "owner"), token(t, "other")
	input := model.CarInput{Company: "Kia", Engine: "petrol", Color: "Dark Blue", Mileage: 5, Price: 900}

	w := f.do(t, http.MethodPost, "/api/cars", "", input)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/cars", owner, input)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CarResponse
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "owner", created.OwnerID)

	input.Price = 800
	w = f.do(t, http.MethodPut, "/api/cars/"+created.ID, other, input)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPut, "/api/cars/"+created.ID, owner, input)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/cars/mine", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []CarResponse
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(800), mine[0].Price)

	w = f.do(t, http.MethodDelete, "/api/cars/"+created.ID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/cars/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCar_InvalidColor(t *testing.T) {
	f := newFixture(t)
	input := model.CarInput{Company: "Kia", Engine: "petrol", Color: "#ff0000"}
	w := f.do(t, http.MethodPost, "/api/cars", token(t, "u"), input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a"})

	w := f.do(t, http.MethodPost, "/api/cars/a/reviews", token(t, "u1"), ReviewRequestDTO{Rating: 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/cars/a/reviews", token(t, "u1"), ReviewRequestDTO{Rating: 4, Comment: " nice "})
	require.Equal(t, http.StatusCreated, w.Code)
	var created ReviewResponseDTO
	decode(t, w, &created)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "nice", created.Comment)

	w = f.do(t, http.MethodGet, "/api/cars/a/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ReviewResponseDTO
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = f.do(t, http.MethodGet, "/api/cars/missing/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a"})
	tok := token(t, "u1")

	w := f.do(t, http.MethodGet, "/api/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/favorites/a", tok, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/api/favorites/a", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added":false}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/favorites", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var favs []model.Favorite
	decode(t, w, &favs)
	require.Len(t, favs, 1)
	require.NotNil(t, favs[0].Car)
	assert.Equal(t, "a", favs[0].Car.ID)

	w = f.do(t, http.MethodDelete, "/api/favorites/a", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodDelete, "/api/favorites/a", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPhotoRoutes_DisabledWithoutStorage(t *testing.T) {
	f := newFixture(t)
	f.put(t, model.Car{ID: "a"})
	w := f.do(t, http.MethodGet, "/api/cars/a/image", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("gone")), http.StatusNotFound},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.Store("op", io.EOF), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		respondError(c, io.ErrUnexpectedEOF)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestCarColorValidator(t *testing.T) {
	for _, ok := range []string{"Red", "Dark Blue", "blue-grey"} {
		assert.True(t, carColorPattern.MatchString(ok), ok)
	}
	for _, bad := range []string{"", "#fff", "1red", " red"} {
		assert.False(t, carColorPattern.MatchString(bad), bad)
	}
}
