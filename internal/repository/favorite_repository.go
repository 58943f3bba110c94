package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type FavoriteRepository struct {
	coll *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{coll: db.Collection(string(query.Favorites))}
}

// Add inserts the pair. The unique (user, car) index turns a repeat into
// a no-op that reports false.
func (r *FavoriteRepository) Add(ctx context.Context, fav *model.Favorite) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.Add", time.Now(), &err)
	if _, err = r.coll.InsertOne(ctx, fav); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, apperr.Store("FavoriteRepository.Add", err)
	}
	return true, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, carID string) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.Remove", time.Now(), &err)
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "user", Value: userID}, {Key: "car", Value: carID}})
	if err != nil {
		return false, apperr.Store("FavoriteRepository.Remove", err)
	}
	return res.DeletedCount > 0, nil
}

// ListByUser returns the user's favorites, newest first, joined with
// their cars. Favorites whose car is gone are dropped.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) (_ []model.Favorite, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.ListByUser", time.Now(), &err)
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user", Value: userID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: string(query.Cars)},
			{Key: "localField", Value: "car"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "joined"},
		}}},
		{{Key: "$unwind", Value: "$joined"}},
	})
	if err != nil {
		return nil, apperr.Store("FavoriteRepository.ListByUser", err)
	}
	var docs []struct {
		model.Favorite `bson:",inline"`
		Joined         model.Car `bson:"joined"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store("FavoriteRepository.ListByUser", err)
	}
	out := make([]model.Favorite, 0, len(docs))
	for _, d := range docs {
		fav := d.Favorite
		car := d.Joined
		fav.Car = &car
		out = append(out, fav)
	}
	return out, nil
}

func (r *FavoriteRepository) CountByCar(ctx context.Context, carID string) (_ int64, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.CountByCar", time.Now(), &err)
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "car", Value: carID}})
	if err != nil {
		return 0, apperr.Store("FavoriteRepository.CountByCar", err)
	}
	return n, nil
}
