package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ViewRepository struct {
	coll *mongo.Collection
}

func NewViewRepository(db *mongo.Database) *ViewRepository {
	return &ViewRepository{coll: db.Collection(string(query.Views))}
}

// RecordIfAbsent upserts ev against any event of the same car and ip in
// the window. The insert happens only when no such event matched.
func (r *ViewRepository) RecordIfAbsent(ctx context.Context, ev *model.ViewEvent, window time.Duration) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.RecordIfAbsent", time.Now(), &err)
	if ev.ID == "" {
		ev.ID = newID()
	}
	filter := bson.D{
		{Key: "car", Value: ev.CarID},
		{Key: "ip", Value: ev.IP},
		{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: ev.CreatedAt.Add(-window)}}},
	}
	insert := bson.D{
		{Key: "_id", Value: ev.ID},
		{Key: "userAgent", Value: ev.UserAgent},
		{Key: "createdAt", Value: ev.CreatedAt},
	}
	if ev.ViewerID != "" {
		insert = append(insert, bson.E{Key: "viewer", Value: ev.ViewerID})
	}
	res, err := r.coll.UpdateOne(ctx, filter,
		bson.D{{Key: "$setOnInsert", Value: insert}},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, apperr.Store("ViewRepository.RecordIfAbsent", err)
	}
	return res.UpsertedCount == 1, nil
}

// Stats counts the views of carID, in total and since the given time.
func (r *ViewRepository) Stats(ctx context.Context, carID string, since time.Time) (_ model.ViewStats, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.Stats", time.Now(), &err)
	st := model.ViewStats{CarID: carID}
	byCar := bson.D{{Key: "car", Value: carID}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalViews, err = r.coll.CountDocuments(gctx, byCar)
		return err
	})
	g.Go(func() (err error) {
		st.RecentViews, err = r.coll.CountDocuments(gctx, bson.D{
			{Key: "car", Value: carID},
			{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
		})
		return err
	})
	g.Go(func() error {
		ips, err := r.coll.Distinct(gctx, "ip", byCar)
		st.UniqueVisitors = int64(len(ips))
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ViewStats{}, apperr.Store("ViewRepository.Stats", err)
	}
	return st, nil
}

// Trending runs an aggregation plan over the views collection.
func (r *ViewRepository) Trending(ctx context.Context, plan *query.Plan) (_ []model.TrendingCar, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.Trending", time.Now(), &err)
	pipe, err := query.MongoPipeline(plan)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, apperr.Store("ViewRepository.Trending", err)
	}
	var cars []model.TrendingCar
	if err := cur.All(ctx, &cars); err != nil {
		return nil, apperr.Store("ViewRepository.Trending", err)
	}
	return cars, nil
}
