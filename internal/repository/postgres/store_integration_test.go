//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
	"car-listing-service/internal/search"
)

// setupStore starts a PostgreSQL container and returns a migrated store.
func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cars_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := Connect(ctx, dsn, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seed(t *testing.T, db *sqlx.DB, st *Store, cars ...model.Car) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, name) VALUES ('u1', 'Dana') ON CONFLICT DO NOTHING`)
	require.NoError(t, err)
	for i := range cars {
		require.NoError(t, st.Listings.Create(context.Background(), &cars[i]))
	}
}

func TestPostgres_ListingsAndSearch(t *testing.T) {
	ctx := context.Background()
	st := setupStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seed(t, st.DB, st,
		model.Car{ID: "a", OwnerID: "u1", Company: "BMW", Engine: "petrol", Color: "Red", Price: 500000, Mileage: 20, CreatedAt: base},
		model.Car{ID: "b", OwnerID: "u1", Company: "Audi", Engine: "diesel", Color: "Blue", Price: 300000, Mileage: 40, CreatedAt: base.Add(time.Hour)},
		model.Car{ID: "c", OwnerID: "u1", Company: "Kia", Engine: "electric", Color: "red", Price: 700000, Mileage: 5, CreatedAt: base.Add(2 * time.Hour)},
	)

	got, err := st.Listings.FindByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "Dana", got.Owner.Name)

	_, err = st.Listings.FindByID(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(st.Listings.Create(ctx, &model.Car{ID: "a"}), apperr.KindValidation))

	svc := search.NewService(st.Listings, st.Reviews, st.Views).WithClock(func() time.Time { return base })
	lo := int64(300000)
	res, err := svc.Advanced(ctx, search.Params{MinPrice: &lo, Colors: []string{"RED"}, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, res.Cars, 2)
	assert.Equal(t, "a", res.Cars[0].ID)
	assert.Equal(t, "c", res.Cars[1].ID)

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Red", "red"}, opts.Colors)
	assert.Equal(t, search.Bounds{Min: 300000, Max: 700000}, opts.PriceRange)

	_, err = st.Reviews.Insert(ctx, &model.Review{CarID: "a", UserID: "u1", Rating: 5})
	require.NoError(t, err)
	cmp, err := svc.Compare(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "b", cmp.Insights.Cheapest)
	require.NotNil(t, cmp.Insights.HighestRated)
	assert.Equal(t, "a", *cmp.Insights.HighestRated)
	assert.Equal(t, "Dana", cmp.Cars[0].Reviews[0].Author)

	sim, err := svc.Similar(ctx, "a", 4)
	require.NoError(t, err)
	for _, c := range sim.SimilarCars {
		assert.NotEqual(t, "a", c.ID)
	}
}

func TestPostgres_ViewsAndTrending(t *testing.T) {
	ctx := context.Background()
	st := setupStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	seed(t, st.DB, st,
		model.Car{ID: "a", OwnerID: "u1", Company: "BMW", CreatedAt: now},
		model.Car{ID: "b", OwnerID: "u1", Company: "Audi", CreatedAt: now},
	)

	rec := func(car, ip string, at time.Time) bool {
		ok, err := st.Views.RecordIfAbsent(ctx, &model.ViewEvent{CarID: car, IP: ip, CreatedAt: at}, 5*time.Minute)
		require.NoError(t, err)
		return ok
	}
	assert.True(t, rec("a", "1", now.Add(-10*time.Minute)))
	assert.False(t, rec("a", "1", now.Add(-6*time.Minute)))
	assert.True(t, rec("a", "2", now))
	assert.True(t, rec("b", "1", now))
	assert.True(t, rec("b", "2", now.Add(-8*24*time.Hour)))

	stats, err := st.Views.Stats(ctx, "a", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.ViewStats{CarID: "a", TotalViews: 2, RecentViews: 2, UniqueVisitors: 2}, stats)

	cars, err := st.Views.Trending(ctx, search.TrendingPlan(now.Add(-search.TrendingWindow), 6))
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, "a", cars[0].ID)
	assert.Equal(t, int64(2), cars[0].ViewCount)
	assert.Equal(t, "BMW", cars[0].Company)
	assert.Equal(t, int64(1), cars[1].ViewCount)

	added, err := st.Favorites.Add(ctx, &model.Favorite{UserID: "u1", CarID: "a", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = st.Favorites.Add(ctx, &model.Favorite{UserID: "u1", CarID: "a", CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, added)

	favs, err := st.Favorites.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "BMW", favs[0].Car.Company)

	ext, err := st.Listings.Extent(ctx, query.FieldMileage)
	require.NoError(t, err)
	assert.False(t, ext.Empty)
}
