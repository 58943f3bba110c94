//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"car-listing-service/internal/apperr"
	mongoclient "car-listing-service/internal/mongo"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
	"car-listing-service/internal/search"
)

// setupStore starts a MongoDB container and returns a store with its
// indexes in place.
func setupStore(t *testing.T) (*Store, *mongo.Database) {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongoclient.NewMongoClient(ctx, uri, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database("cars_test")
	require.NoError(t, mongoclient.EnsureIndexes(ctx, db))
	return NewStore(db), db
}

func seed(t *testing.T, db *mongo.Database, st *Store, cars ...model.Car) {
	t.Helper()
	ctx := context.Background()
	_, err := db.Collection(string(query.Users)).InsertOne(ctx, model.User{ID: "u1", Name: "Dana"})
	require.NoError(t, err)
	for i := range cars {
		require.NoError(t, st.Listings.Create(ctx, &cars[i]))
	}
}

func TestMongo_ListingsAndSearch(t *testing.T) {
	ctx := context.Background()
	st, db := setupStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	seed(t, db, st,
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

	byIDs, err := st.Listings.FindByIDs(ctx, []string{"c", "a", "missing"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	for _, c := range byIDs {
		require.NotNil(t, c.Owner)
		assert.Equal(t, "Dana", c.Owner.Name)
	}

	mine, err := st.Listings.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "c", mine[0].ID)

	svc := search.NewService(st.Listings, st.Reviews, st.Views).WithClock(func() time.Time { return base })
	lo := int64(300000)
	res, err := svc.Advanced(ctx, search.Params{MinPrice: &lo, Colors: []string{"RED"}, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, res.Cars, 2)
	assert.Equal(t, "a", res.Cars[0].ID)
	assert.Equal(t, "c", res.Cars[1].ID)
	assert.Equal(t, int64(2), res.Pagination.Total)

	far, err := svc.Advanced(ctx, search.Params{Page: 1_000_000_000_000_000_000, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, far.Cars)

	opts, err := svc.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Red", "red"}, opts.Colors)
	assert.Equal(t, []string{"diesel", "electric", "petrol"}, opts.Engines)
	assert.Equal(t, search.Bounds{Min: 300000, Max: 700000}, opts.PriceRange)
	assert.Equal(t, search.Bounds{Min: 5, Max: 40}, opts.MileageRange)

	for _, r := range []int{5, 4} {
		_, err = st.Reviews.Insert(ctx, &model.Review{CarID: "a", UserID: "u1", Rating: r})
		require.NoError(t, err)
	}
	_, err = st.Reviews.Insert(ctx, &model.Review{CarID: "b", UserID: "ghost", Rating: 3})
	require.NoError(t, err)

	sums, err := st.Reviews.Summaries(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, 2, sums["a"].Count)
	assert.InDelta(t, 4.5, sums["a"].Average, 1e-9)
	assert.Equal(t, "", sums["b"].Reviews[0].Author)

	cmp, err := svc.Compare(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "b", cmp.Insights.Cheapest)
	assert.Equal(t, "c", cmp.Insights.MostExpensive)
	assert.Equal(t, "b", cmp.Insights.BestMileage)
	require.NotNil(t, cmp.Insights.HighestRated)
	assert.Equal(t, "a", *cmp.Insights.HighestRated)
	assert.Equal(t, 4.5, cmp.Cars[0].AvgRating)
	assert.Equal(t, "Dana", cmp.Cars[0].Reviews[0].Author)

	sim, err := svc.Similar(ctx, "a", 4)
	require.NoError(t, err)
	for _, c := range sim.SimilarCars {
		assert.NotEqual(t, "a", c.ID)
	}
}

func TestMongo_EmptyExtent(t *testing.T) {
	st, _ := setupStore(t)
	ext, err := st.Listings.Extent(context.Background(), query.FieldPrice)
	require.NoError(t, err)
	assert.True(t, ext.Empty)
}

func TestMongo_ViewsAndTrending(t *testing.T) {
	ctx := context.Background()
	st, db := setupStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	seed(t, db, st,
		model.Car{ID: "a", OwnerID: "u1", Company: "BMW", CreatedAt: now},
		model.Car{ID: "b", OwnerID: "u1", Company: "Audi", CreatedAt: now},
		model.Car{ID: "c", OwnerID: "u1", Company: "Kia", CreatedAt: now},
	)

	rec := func(car, ip string, at time.Time) bool {
		ok, err := st.Views.RecordIfAbsent(ctx, &model.ViewEvent{CarID: car, IP: ip, CreatedAt: at}, 5*time.Minute)
		require.NoError(t, err)
		return ok
	}
	t0 := now.Add(-20 * time.Minute)
	assert.True(t, rec("a", "1", t0))
	// 4 minutes later the pair is still a duplicate, after 6 it counts again.
	assert.False(t, rec("a", "1", t0.Add(4*time.Minute)))
	assert.True(t, rec("a", "1", t0.Add(10*time.Minute)))
	assert.True(t, rec("a", "2", now))
	assert.True(t, rec("b", "1", now))
	assert.True(t, rec("b", "2", now))
	assert.True(t, rec("c", "1", now))
	// Outside the trailing window: counted in totals, ignored by trending.
	assert.True(t, rec("c", "2", now.Add(-8*24*time.Hour)))
	assert.True(t, rec("c", "3", now.Add(-9*24*time.Hour)))
	// A view of a car that no longer exists is dropped by the join.
	for _, ip := range []string{"7", "8", "9", "10"} {
		assert.True(t, rec("gone", ip, now))
	}

	stats, err := st.Views.Stats(ctx, "a", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.ViewStats{CarID: "a", TotalViews: 3, RecentViews: 3, UniqueVisitors: 2}, stats)

	stats, err = st.Views.Stats(ctx, "c", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalViews)
	assert.Equal(t, int64(1), stats.RecentViews)

	cars, err := st.Views.Trending(ctx, search.TrendingPlan(now.Add(-search.TrendingWindow), 6))
	require.NoError(t, err)
	var got []string
	for _, c := range cars {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, int64(3), cars[0].ViewCount)
	assert.Equal(t, "BMW", cars[0].Company)
	assert.Equal(t, int64(2), cars[1].ViewCount)
	assert.Equal(t, int64(1), cars[2].ViewCount)

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

	n, err := st.Favorites.CountByCar(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
